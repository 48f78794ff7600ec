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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("triad.knowledge")

// WeaviateConfig configures a WeaviateRetriever.
type WeaviateConfig struct {
	// URL is the Weaviate endpoint, e.g. "http://localhost:8080".
	URL string

	// ClassName is the document class to search.
	ClassName string

	// DefaultLimit is used when Search is called with limit <= 0.
	DefaultLimit int
}

// WeaviateRetriever performs semantic search against a Weaviate document
// class via nearText.
type WeaviateRetriever struct {
	client    *weaviate.Client
	className string
	limit     int
}

// NewWeaviateRetriever creates a retriever for cfg.
func NewWeaviateRetriever(cfg WeaviateConfig) (*WeaviateRetriever, error) {
	if cfg.URL == "" {
		return nil, errors.New("weaviate URL must not be empty")
	}
	if cfg.ClassName == "" {
		return nil, errors.New("weaviate class name must not be empty")
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 5
	}

	parsed, err := url.Parse(cfg.URL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid weaviate URL %q", cfg.URL)
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsed.Host,
		Scheme: parsed.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	slog.Info("Initializing Weaviate retriever",
		"host", parsed.Host,
		"class", cfg.ClassName,
	)
	return &WeaviateRetriever{
		client:    client,
		className: cfg.ClassName,
		limit:     cfg.DefaultLimit,
	}, nil
}

// Search implements the Retriever interface.
func (r *WeaviateRetriever) Search(ctx context.Context, query string, limit int) ([]Chunk, error) {
	ctx, span := tracer.Start(ctx, "WeaviateRetriever.Search")
	defer span.End()
	span.SetAttributes(attribute.String("weaviate.class", r.className))

	if query == "" {
		return nil, errors.New("query cannot be empty")
	}
	if limit <= 0 {
		limit = r.limit
	}

	nearText := r.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "_additional { distance }"},
	}

	result, err := r.client.GraphQL().Get().
		WithClassName(r.className).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	if len(result.Errors) > 0 {
		err := fmt.Errorf("search error: %s", result.Errors[0].Message)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	chunks := parseChunks(result, r.className)
	span.SetAttributes(attribute.Int("weaviate.results", len(chunks)))
	slog.Debug("Retrieved knowledge chunks", "count", len(chunks), "limit", limit)
	return chunks, nil
}

// parseChunks extracts chunks from a GraphQL Get response.
func parseChunks(result *models.GraphQLResponse, className string) []Chunk {
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	objects, ok := data[className].([]interface{})
	if !ok {
		return nil
	}

	chunks := make([]Chunk, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue // skip malformed objects
		}

		chunk := Chunk{
			Content: getString(m, "content"),
			Source:  getString(m, "source"),
		}
		if additional, ok := m["_additional"].(map[string]interface{}); ok {
			if distance, ok := additional["distance"].(float64); ok {
				chunk.Distance = distance
			}
		}
		if chunk.Content == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// Compile-time interface compliance check.
var _ Retriever = (*WeaviateRetriever)(nil)
