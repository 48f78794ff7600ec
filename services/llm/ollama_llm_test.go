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

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewOllamaClient_RequiresConfig verifies constructor validation.
func TestNewOllamaClient_RequiresConfig(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "")
	t.Setenv("OLLAMA_MODEL", "")

	_, err := NewOllamaClient(OllamaConfig{Model: "llama3"})
	assert.Error(t, err, "missing base URL should fail")

	_, err = NewOllamaClient(OllamaConfig{BaseURL: "http://localhost:11434"})
	assert.Error(t, err, "missing model should fail")
}

// TestOllamaClient_Generate verifies request shape and response parsing.
func TestOllamaClient_Generate(t *testing.T) {
	var gotReq ollamaGenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Model:    gotReq.Model,
			Response: "generated text",
			Done:     true,
		})
	}))
	defer srv.Close()

	client, err := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: "llama3"})
	require.NoError(t, err)

	temp := float32(0.2)
	maxTokens := 256
	out, err := client.Generate(context.Background(), "hello", GenerationParams{
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	require.NoError(t, err)

	assert.Equal(t, "generated text", out)
	assert.Equal(t, "llama3", gotReq.Model)
	assert.Equal(t, "hello", gotReq.Prompt)
	assert.False(t, gotReq.Stream)
	assert.InDelta(t, 0.2, gotReq.Options["temperature"], 1e-6)
	assert.EqualValues(t, 256, gotReq.Options["num_predict"])
}

// TestOllamaClient_Generate_ServerError verifies non-200 handling.
func TestOllamaClient_Generate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: "missing"})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "hello", GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

// TestOllamaClient_Generate_ContextCancelled verifies ctx propagation.
func TestOllamaClient_Generate_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client, err := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: "llama3"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Generate(ctx, "hello", GenerationParams{})
	assert.Error(t, err)
}
