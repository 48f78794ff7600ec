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

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianTriad/services/llm"
)

var tracer = otel.Tracer("triad.agents")

// LLMAgent is a RoleAgent backed by any llm.LLMClient.
//
// # Description
//
// The agent builds a role-specific prompt, generates a completion, and
// parses the JSON vote envelope out of the model output. Generation runs at
// low temperature; the vote envelope matters more than fluency. Veto flags
// from any role other than Ethos are ignored at parse time.
//
// # Thread Safety
//
// LLMAgent is immutable after construction and safe for concurrent use,
// provided the underlying client is.
type LLMAgent struct {
	role   Role
	client llm.LLMClient
	model  string
}

// NewLLMAgent creates an agent for role over client. model is recorded for
// logging and tracing only; backends carry their own model selection.
func NewLLMAgent(role Role, client llm.LLMClient, model string) (*LLMAgent, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if client == nil {
		return nil, fmt.Errorf("agent %s: nil LLM client", role)
	}
	return &LLMAgent{role: role, client: client, model: model}, nil
}

// Role returns the agent's role identity.
func (a *LLMAgent) Role() Role {
	return a.role
}

// Evaluate generates and parses one vote.
//
// # Outputs
//
//   - Vote: the parsed vote; Elapsed is always set
//   - error: backend failure, ctx expiry, or ErrUnparseableOutput. The
//     consensus engine converts any error into an abstention for the round.
func (a *LLMAgent) Evaluate(ctx context.Context, req EvaluationRequest) (Vote, error) {
	ctx, span := tracer.Start(ctx, "LLMAgent.Evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("agent.role", string(a.role)),
		attribute.String("agent.model", a.model),
	)

	start := time.Now()
	prompt := buildPrompt(a.role, req)

	temp := float32(0.2)
	maxTokens := 1024
	raw, err := a.client.Generate(ctx, prompt, llm.GenerationParams{
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Vote{Role: a.role, Elapsed: elapsed}, fmt.Errorf("agent %s: %w", a.role, err)
	}

	vote, err := parseVote(a.role, raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("Agent output unparseable",
			"role", a.role,
			"model", a.model,
			"output_len", len(raw),
		)
		return Vote{Role: a.role, Elapsed: elapsed}, err
	}
	vote.Elapsed = elapsed

	span.SetAttributes(attribute.Float64("agent.confidence", vote.Confidence))
	slog.Debug("Agent voted", "vote", vote.String(), "elapsed_ms", elapsed.Milliseconds())
	return vote, nil
}

// voteEnvelopeJSON mirrors the JSON object the prompts demand.
type voteEnvelopeJSON struct {
	Confidence float64 `json:"confidence"`
	Answer     string  `json:"answer"`
	Veto       bool    `json:"veto"`
	Reason     string  `json:"reason"`
}

// parseVote extracts the vote envelope from raw model output.
//
// Models wrap JSON in code fences or prose often enough that the parser
// takes the outermost {...} region rather than requiring a clean document.
func parseVote(role Role, raw string) (Vote, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Vote{}, fmt.Errorf("%w: no JSON object in output", ErrUnparseableOutput)
	}

	var env voteEnvelopeJSON
	if err := json.Unmarshal([]byte(raw[start:end+1]), &env); err != nil {
		return Vote{}, fmt.Errorf("%w: %v", ErrUnparseableOutput, err)
	}

	if role == RoleEthos && env.Veto {
		reason := env.Reason
		if reason == "" {
			reason = env.Answer
		}
		return VetoVote(reason), nil
	}

	return Vote{
		Role:       role,
		Confidence: clamp01(env.Confidence),
		Answer:     env.Answer,
	}, nil
}

// clamp01 bounds a confidence into [0,1].
func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// Compile-time interface compliance check.
var _ RoleAgent = (*LLMAgent)(nil)
