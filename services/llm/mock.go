// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import "context"

// MockClient is a test double for LLMClient.
type MockClient struct {
	// GenerateFunc is called by Generate when set.
	GenerateFunc func(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// Generate invokes GenerateFunc or returns an empty completion.
func (m *MockClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, params)
	}
	return "", nil
}

// Compile-time interface compliance check.
var _ LLMClient = (*MockClient)(nil)
