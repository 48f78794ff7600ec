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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
)

// Server exposes the pipeline over HTTP.
type Server struct {
	pipeline *Pipeline
	journal  *Journal
	addr     string
	srv      *http.Server
}

// NewServer creates a server bound to addr.
func NewServer(pipeline *Pipeline, journal *Journal, addr string) (*Server, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline must not be nil")
	}
	if addr == "" {
		addr = ":8090"
	}
	return &Server{pipeline: pipeline, journal: journal, addr: addr}, nil
}

// askRequest is the /v1/ask request body.
type askRequest struct {
	Question string `json:"question" binding:"required"`
}

// askResponse is the /v1/ask response body. Answer text is present only on
// a passed deliberation.
type askResponse struct {
	Answer     string         `json:"answer,omitempty"`
	Passed     bool           `json:"passed"`
	Score      float64        `json:"score"`
	Rounds     int            `json:"rounds"`
	Vetoed     bool           `json:"vetoed,omitempty"`
	VetoReason string         `json:"veto_reason,omitempty"`
	Warnings   []string       `json:"warnings,omitempty"`
	Sources    []string       `json:"sources,omitempty"`
	Redactions map[string]int `json:"redactions,omitempty"`
}

// router builds the gin engine with all routes registered.
func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(otelgin.Middleware("triad-gateway"))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/ask", s.handleAsk)
	v1.GET("/journal", s.handleJournal)
	return r
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	answer, err := s.pipeline.Ask(c.Request.Context(), req.Question)
	if err != nil {
		slog.Error("Pipeline request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deliberation failed"})
		return
	}

	c.JSON(http.StatusOK, askResponse{
		Answer:     answer.Text,
		Passed:     answer.Passed,
		Score:      answer.Score,
		Rounds:     answer.Rounds,
		Vetoed:     answer.Vetoed,
		VetoReason: answer.VetoReason,
		Warnings:   answer.Warnings,
		Sources:    answer.Sources,
		Redactions: answer.Redactions,
	})
}

func (s *Server) handleJournal(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journal disabled"})
		return
	}
	entries, err := s.journal.List(50)
	if err != nil {
		slog.Error("Journal read failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "journal read failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Gateway listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gateway server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("gateway shutdown: %w", err)
		}
		slog.Info("Gateway stopped")
		return nil
	})
	return g.Wait()
}
