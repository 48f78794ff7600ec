// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package knowledge retrieves grounding material for the analytical role.
// Retrieval always runs against redacted query text; the knowledge store
// never sees original sensitive values.
package knowledge

import "context"

// Chunk is a retrieved piece of grounding material.
type Chunk struct {
	// Content is the chunk text.
	Content string

	// Source identifies where the chunk came from.
	Source string

	// Distance is the vector distance to the query. Lower is closer.
	Distance float64
}

// Retriever finds chunks relevant to a query.
type Retriever interface {
	// Search returns up to limit chunks ordered by relevance.
	Search(ctx context.Context, query string, limit int) ([]Chunk, error)
}

// NopRetriever returns no chunks. Used when retrieval is disabled.
type NopRetriever struct{}

// Search implements the Retriever interface.
func (NopRetriever) Search(ctx context.Context, query string, limit int) ([]Chunk, error) {
	return nil, nil
}

// MockRetriever is a test double for Retriever.
type MockRetriever struct {
	// SearchFunc is called by Search when set.
	SearchFunc func(ctx context.Context, query string, limit int) ([]Chunk, error)
}

// Search invokes SearchFunc or returns no chunks.
func (m *MockRetriever) Search(ctx context.Context, query string, limit int) ([]Chunk, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, limit)
	}
	return nil, nil
}

// Compile-time interface compliance checks.
var (
	_ Retriever = NopRetriever{}
	_ Retriever = (*MockRetriever)(nil)
)
