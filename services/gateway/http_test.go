// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianTriad/services/agents"
	"github.com/AleutianAI/AleutianTriad/services/knowledge"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("TRIAD_INSECURE_MEMORY", "true")

	engine := testEngine(t,
		echoAgent(agents.RolePathos),
		echoAgent(agents.RoleLogos),
		echoAgent(agents.RoleEthos),
	)
	pipeline, err := NewPipeline(testPatterns(t), engine, knowledge.NopRetriever{}, nil, 0)
	require.NoError(t, err)

	srv, err := NewServer(pipeline, nil, ":0")
	require.NoError(t, err)
	return srv
}

// TestServer_Ask verifies the happy path over HTTP.
func TestServer_Ask(t *testing.T) {
	srv := setupTestServer(t)
	router := srv.router()

	body, _ := json.Marshal(map[string]string{"question": "what broke last night?"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/ask", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp askResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Passed)
	assert.NotEmpty(t, resp.Answer)
	assert.Equal(t, 1, resp.Rounds)
}

// TestServer_Ask_BadRequest verifies body validation.
func TestServer_Ask_BadRequest(t *testing.T) {
	srv := setupTestServer(t)
	router := srv.router()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/ask", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestServer_Healthz verifies the liveness endpoint.
func TestServer_Healthz(t *testing.T) {
	srv := setupTestServer(t)
	router := srv.router()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// TestServer_Journal_Disabled verifies the endpoint without a journal.
func TestServer_Journal_Disabled(t *testing.T) {
	srv := setupTestServer(t)
	router := srv.router()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/journal", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
