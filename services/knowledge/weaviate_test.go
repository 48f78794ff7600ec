// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"
)

// TestNewWeaviateRetriever_Validation verifies constructor checks.
func TestNewWeaviateRetriever_Validation(t *testing.T) {
	_, err := NewWeaviateRetriever(WeaviateConfig{ClassName: "Document"})
	assert.Error(t, err, "missing URL should fail")

	_, err = NewWeaviateRetriever(WeaviateConfig{URL: "http://localhost:8080"})
	assert.Error(t, err, "missing class name should fail")

	_, err = NewWeaviateRetriever(WeaviateConfig{URL: "://bad", ClassName: "Document"})
	assert.Error(t, err, "unparseable URL should fail")

	r, err := NewWeaviateRetriever(WeaviateConfig{URL: "http://localhost:8080", ClassName: "Document"})
	require.NoError(t, err)
	assert.Equal(t, 5, r.limit, "default limit applies")
}

// TestParseChunks verifies GraphQL response parsing.
func TestParseChunks(t *testing.T) {
	resp := &models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Get": map[string]interface{}{
				"Document": []interface{}{
					map[string]interface{}{
						"content": "first chunk",
						"source":  "handbook.md",
						"_additional": map[string]interface{}{
							"distance": 0.12,
						},
					},
					map[string]interface{}{
						"content": "second chunk",
						"source":  "faq.md",
					},
					map[string]interface{}{
						// no content, dropped
						"source": "empty.md",
					},
					"not an object",
				},
			},
		},
	}

	chunks := parseChunks(resp, "Document")
	require.Len(t, chunks, 2)
	assert.Equal(t, "first chunk", chunks[0].Content)
	assert.Equal(t, "handbook.md", chunks[0].Source)
	assert.InDelta(t, 0.12, chunks[0].Distance, 1e-9)
	assert.Equal(t, "second chunk", chunks[1].Content)
	assert.Zero(t, chunks[1].Distance)
}

// TestParseChunks_EmptyResponse verifies missing sections yield no chunks.
func TestParseChunks_EmptyResponse(t *testing.T) {
	assert.Nil(t, parseChunks(&models.GraphQLResponse{}, "Document"))

	resp := &models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Get": map[string]interface{}{},
		},
	}
	assert.Nil(t, parseChunks(resp, "Document"))
}
