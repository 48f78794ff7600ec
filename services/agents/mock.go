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

import "context"

// MockAgent is a test double for RoleAgent.
//
// # Description
//
// Provides configurable behavior through func fields. With EvaluateFunc
// unset, Evaluate returns a confident affirmative vote, which keeps simple
// tests short.
type MockAgent struct {
	// RoleValue is returned by Role.
	RoleValue Role

	// EvaluateFunc is called by Evaluate when set.
	EvaluateFunc func(ctx context.Context, req EvaluationRequest) (Vote, error)
}

// Role returns the configured role.
func (m *MockAgent) Role() Role {
	return m.RoleValue
}

// Evaluate invokes EvaluateFunc or returns a default confident vote.
func (m *MockAgent) Evaluate(ctx context.Context, req EvaluationRequest) (Vote, error) {
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, req)
	}
	return Vote{Role: m.RoleValue, Confidence: 0.9, Answer: "mock answer"}, nil
}

// Compile-time interface compliance check.
var _ RoleAgent = (*MockAgent)(nil)
