// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agents

import (
	"context"
	"errors"
)

// ErrUnparseableOutput is returned when a model's output cannot be parsed
// into a structured vote. The engine treats it like any internal failure:
// the role abstains for the round.
var ErrUnparseableOutput = errors.New("agent output could not be parsed into a vote")

// RoleAgent is the single capability all three roles implement.
//
// # Description
//
// Orchestration (timeout, invocation, vote collection) is identical across
// roles, so the engine works against this interface and the variants differ
// only in what they emphasize. Evaluate must respect ctx cancellation; the
// engine wraps every invocation in a per-agent timeout and converts errors
// into abstention votes.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use; the three roles of a
// round run in parallel.
type RoleAgent interface {
	// Role returns the agent's role identity.
	Role() Role

	// Evaluate produces exactly one vote for the request. An error means
	// the agent could not vote (timeout, backend failure, unparseable
	// output); the caller records an abstention in its place.
	Evaluate(ctx context.Context, req EvaluationRequest) (Vote, error)
}
