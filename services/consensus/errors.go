// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package consensus

import "fmt"

// VetoError reports that the ethical gate rejected the answer. A veto ends
// deliberation immediately; no retry round follows.
type VetoError struct {
	// Reason is the agent's stated ground for the veto.
	Reason string

	// Round is the round in which the veto was cast (1-based).
	Round int
}

// Error implements the error interface.
func (e *VetoError) Error() string {
	return fmt.Sprintf("vetoed in round %d: %s", e.Round, e.Reason)
}

// ThresholdError reports that deliberation exhausted all rounds without the
// weighted score reaching the configured threshold.
type ThresholdError struct {
	// BestScore is the highest weighted score across all rounds.
	BestScore float64

	// Threshold is the score the rounds had to reach.
	Threshold float64

	// Rounds is the number of rounds run.
	Rounds int
}

// Error implements the error interface.
func (e *ThresholdError) Error() string {
	return fmt.Sprintf("no consensus after %d rounds: best score %.4f below threshold %.4f",
		e.Rounds, e.BestScore, e.Threshold)
}
