// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gateway wires the full query pipeline: redaction, retrieval,
// deliberation, journaling, reinflation. It is the only package that sees
// both raw user text and the consensus machinery, and it enforces the phase
// order that keeps sensitive values away from every model call.
package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianTriad/services/consensus"
	"github.com/AleutianAI/AleutianTriad/services/knowledge"
	"github.com/AleutianAI/AleutianTriad/services/privacy"
)

var tracer = otel.Tracer("triad.gateway")

// Answer is the pipeline's result for one query.
type Answer struct {
	// Text is the reinflated answer. Empty unless Passed is true.
	Text string

	// Passed reports whether deliberation reached consensus.
	Passed bool

	// Score is the weighted score of the final round.
	Score float64

	// Rounds is how many deliberation rounds ran.
	Rounds int

	// Vetoed and VetoReason describe an ethical rejection.
	Vetoed     bool
	VetoReason string

	// Warnings lists placeholder tokens that could not be resolved during
	// reinflation and were left verbatim.
	Warnings []string

	// Sources names the retrieved chunks that grounded the answer.
	Sources []string

	// Redactions counts redacted values per category.
	Redactions map[string]int
}

// Pipeline executes queries end to end.
//
// # Description
//
// Each Ask call gets its own privacy session, so placeholder tokens and the
// value mapping never survive a query. Retrieval and deliberation only ever
// see redacted text; reinflation happens last, after consensus, and only on
// a passing draft.
type Pipeline struct {
	patterns      []privacy.Pattern
	engine        *consensus.Engine
	retriever     knowledge.Retriever
	journal       *Journal
	retrieveLimit int
}

// NewPipeline creates a pipeline. retriever may be a knowledge.NopRetriever
// to skip grounding; journal may be nil to skip persistence.
func NewPipeline(patterns []privacy.Pattern, engine *consensus.Engine, retriever knowledge.Retriever, journal *Journal, retrieveLimit int) (*Pipeline, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine must not be nil")
	}
	if retriever == nil {
		retriever = knowledge.NopRetriever{}
	}
	if retrieveLimit <= 0 {
		retrieveLimit = 5
	}
	return &Pipeline{
		patterns:      patterns,
		engine:        engine,
		retriever:     retriever,
		journal:       journal,
		retrieveLimit: retrieveLimit,
	}, nil
}

// Ask runs one query through the pipeline.
//
// A failed deliberation is a valid Answer with Passed false, not an error.
// Errors cover pipeline-level failures only: session setup, redaction, or
// the engine aborting mid-run.
func (p *Pipeline) Ask(ctx context.Context, query string) (*Answer, error) {
	ctx, span := tracer.Start(ctx, "Pipeline.Ask")
	defer span.End()

	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	sess, err := privacy.NewSessionWithPatterns(p.patterns)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to create privacy session: %w", err)
	}
	defer sess.Close()

	redacted, redactions, err := sess.Redact(query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("redaction failed: %w", err)
	}
	span.SetAttributes(attribute.Int("privacy.redactions", len(redactions)))

	// Retrieval runs on redacted text only. A retrieval failure degrades
	// to an ungrounded deliberation rather than failing the query.
	var chunkTexts []string
	var sources []string
	chunks, err := p.retriever.Search(ctx, redacted, p.retrieveLimit)
	if err != nil {
		slog.Warn("Knowledge retrieval failed, continuing ungrounded", "error", err)
	} else {
		for _, c := range chunks {
			chunkTexts = append(chunkTexts, c.Content)
			sources = append(sources, c.Source)
		}
	}

	result, err := p.engine.Run(ctx, redacted, chunkTexts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("deliberation failed: %w", err)
	}

	answer := &Answer{
		Passed:     result.Outcome == consensus.StatePassed,
		Score:      result.Score,
		Rounds:     len(result.Rounds),
		Vetoed:     result.Vetoed,
		VetoReason: result.VetoReason,
		Sources:    sources,
		Redactions: privacy.CategoryCounts(redactions),
	}

	p.recordJournal(result, answer)

	if answer.Passed {
		text, warnings, err := sess.Reinflate(result.Draft)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("reinflation failed: %w", err)
		}
		answer.Text = text
		answer.Warnings = warnings
	}

	slog.Info("Query pipeline complete",
		"passed", answer.Passed,
		"score", answer.Score,
		"rounds", answer.Rounds,
		"redactions", len(redactions),
	)
	return answer, nil
}

// recordJournal persists decision metadata. Journal failures are logged,
// never fatal; the user still gets their answer.
func (p *Pipeline) recordJournal(result *consensus.Result, answer *Answer) {
	if p.journal == nil {
		return
	}
	entry := JournalEntry{
		Outcome:    result.Outcome.String(),
		Score:      answer.Score,
		Rounds:     answer.Rounds,
		Vetoed:     answer.Vetoed,
		VetoReason: answer.VetoReason,
		Redactions: answer.Redactions,
	}
	if err := p.journal.Record(entry); err != nil {
		slog.Warn("Failed to record journal entry", "error", err)
	}
}
