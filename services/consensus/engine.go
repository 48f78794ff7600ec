// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package consensus runs the tripartite deliberation loop. Three role
// agents vote on a query; the engine scores each round by weighted
// confidence, honors the ethical veto, and retries with feedback until a
// round passes or the round budget runs out.
package consensus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianTriad/services/agents"
)

var tracer = otel.Tracer("triad.consensus")

// ============================================================================
// State machine
// ============================================================================

// State identifies a phase of the deliberation loop.
type State int

const (
	// StateCollectingVotes means agents are evaluating in parallel.
	StateCollectingVotes State = iota

	// StateEvaluating means all votes for the round are in and the engine
	// is scoring them.
	StateEvaluating

	// StatePassed is terminal: a round met the threshold with no veto.
	StatePassed

	// StateRetryNeeded means the round fell short but rounds remain.
	StateRetryNeeded

	// StateFailed is terminal: veto, or round budget exhausted.
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateCollectingVotes:
		return "collecting_votes"
	case StateEvaluating:
		return "evaluating"
	case StatePassed:
		return "passed"
	case StateRetryNeeded:
		return "retry_needed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ============================================================================
// Results
// ============================================================================

// Round records one completed deliberation round.
type Round struct {
	// Number is 1-based.
	Number int

	// Votes holds the vote each role cast this round.
	Votes map[agents.Role]agents.Vote

	// WeightedScore is the weight-averaged confidence. Abstentions count
	// as zero confidence in the average.
	WeightedScore float64
}

// Result is the outcome of a full deliberation.
type Result struct {
	// Outcome is StatePassed or StateFailed.
	Outcome State

	// Draft is the answer text on a passed run, still carrying any
	// placeholder tokens the pipeline substituted upstream.
	Draft string

	// Score is the weighted score of the final round.
	Score float64

	// Threshold is the configured passing score, carried for error
	// reporting.
	Threshold float64

	// Rounds holds every round that ran, in order.
	Rounds []Round

	// Vetoed is true when deliberation ended on an ethical veto.
	Vetoed bool

	// VetoReason carries the veto ground when Vetoed is set.
	VetoReason string
}

// Err returns nil for a passed result, or a typed error describing why the
// deliberation failed. Callers can errors.As for *VetoError and
// *ThresholdError.
func (r *Result) Err() error {
	if r.Outcome == StatePassed {
		return nil
	}
	if r.Vetoed {
		return &VetoError{Reason: r.VetoReason, Round: len(r.Rounds)}
	}
	best := 0.0
	for _, round := range r.Rounds {
		if round.WeightedScore > best {
			best = round.WeightedScore
		}
	}
	return &ThresholdError{BestScore: best, Threshold: r.Threshold, Rounds: len(r.Rounds)}
}

// ============================================================================
// Engine
// ============================================================================

// Engine drives deliberation over a fixed set of role agents.
//
// # Description
//
// Each round the engine fans out to all agents in parallel, bounded by the
// per-agent timeout, then scores the round. An agent error or timeout
// becomes an abstention: a zero-confidence vote that still counts in the
// weighted average, so a silent agent drags the score down rather than
// shrinking the electorate. A veto from the ethical role ends the run
// immediately regardless of the other confidences.
//
// # Thread Safety
//
// Engine is immutable after construction; Run may be called concurrently.
type Engine struct {
	agents  map[agents.Role]agents.RoleAgent
	cfg     Config
	metrics *Metrics
}

// NewEngine creates an engine over roleAgents. Exactly one agent per role
// is required. metrics may be nil to disable instrumentation.
func NewEngine(roleAgents []agents.RoleAgent, cfg Config, metrics *Metrics) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid consensus config: %w", err)
	}

	byRole := make(map[agents.Role]agents.RoleAgent, len(roleAgents))
	for _, a := range roleAgents {
		if a == nil {
			return nil, fmt.Errorf("nil agent")
		}
		role := a.Role()
		if _, dup := byRole[role]; dup {
			return nil, fmt.Errorf("duplicate agent for role %s", role)
		}
		byRole[role] = a
	}
	for _, role := range agents.AllRoles() {
		if _, ok := byRole[role]; !ok {
			return nil, fmt.Errorf("missing agent for role %s", role)
		}
	}

	return &Engine{agents: byRole, cfg: cfg, metrics: metrics}, nil
}

// Run deliberates over query until a round passes, a veto lands, or the
// round budget is exhausted. contextChunks is optional retrieved material
// surfaced to the analytical role.
//
// Run returns an error only for engine-level failures such as ctx expiry
// between rounds. A failed deliberation is a valid Result, not an error;
// use Result.Err to convert.
func (e *Engine) Run(ctx context.Context, query string, contextChunks []string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Engine.Run")
	defer span.End()

	result := &Result{Threshold: e.cfg.Threshold}
	var feedback []agents.RoundFeedback
	var prevDrafts map[agents.Role]string

	for roundNum := 1; roundNum <= e.cfg.MaxRounds; roundNum++ {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("deliberation aborted before round %d: %w", roundNum, err)
		}

		req := agents.EvaluationRequest{
			Query:         query,
			ContextChunks: contextChunks,
			Drafts:        prevDrafts,
			Feedback:      feedback,
		}

		votes := e.collectVotes(ctx, req)
		round := Round{
			Number:        roundNum,
			Votes:         votes,
			WeightedScore: e.scoreRound(votes),
		}
		result.Rounds = append(result.Rounds, round)
		result.Score = round.WeightedScore

		if vote, vetoed := findVeto(votes); vetoed {
			result.Outcome = StateFailed
			result.Vetoed = true
			result.VetoReason = vote.VetoReason
			e.metrics.observeVeto()
			e.metrics.observeDecision(result)
			slog.Warn("Deliberation vetoed",
				"round", roundNum,
				"reason", vote.VetoReason,
			)
			span.SetAttributes(attribute.Bool("consensus.vetoed", true))
			return result, nil
		}

		slog.Info("Deliberation round scored",
			"round", roundNum,
			"score", round.WeightedScore,
			"threshold", e.cfg.Threshold,
		)

		if round.WeightedScore >= e.cfg.Threshold {
			result.Outcome = StatePassed
			result.Draft = pickDraft(votes)
			e.metrics.observeDecision(result)
			span.SetAttributes(
				attribute.Int("consensus.rounds", roundNum),
				attribute.Float64("consensus.score", round.WeightedScore),
			)
			return result, nil
		}

		feedback = append(feedback, agents.RoundFeedback{
			Round:         roundNum,
			WeightedScore: round.WeightedScore,
			EthosComment:  votes[agents.RoleEthos].Answer,
		})
		prevDrafts = draftsFromVotes(votes)
	}

	result.Outcome = StateFailed
	e.metrics.observeDecision(result)
	span.SetAttributes(attribute.Int("consensus.rounds", len(result.Rounds)))
	return result, nil
}

// collectVotes fans out to all agents in parallel and waits for every role.
// Agent errors and timeouts are converted into abstentions here.
func (e *Engine) collectVotes(ctx context.Context, req agents.EvaluationRequest) map[agents.Role]agents.Vote {
	type roleVote struct {
		role agents.Role
		vote agents.Vote
	}

	var wg sync.WaitGroup
	ch := make(chan roleVote, len(e.agents))
	for role, agent := range e.agents {
		wg.Add(1)
		go func(role agents.Role, agent agents.RoleAgent) {
			defer wg.Done()

			agentCtx, cancel := context.WithTimeout(ctx, e.cfg.AgentTimeout)
			defer cancel()

			start := time.Now()
			vote, err := agent.Evaluate(agentCtx, req)
			if err != nil {
				slog.Warn("Agent abstained",
					"role", role,
					"error", err,
					"elapsed_ms", time.Since(start).Milliseconds(),
				)
				e.metrics.observeAbstention(role)
				vote = agents.AbstainVote(role)
			}
			ch <- roleVote{role: role, vote: vote}
		}(role, agent)
	}
	wg.Wait()
	close(ch)

	votes := make(map[agents.Role]agents.Vote, len(e.agents))
	for rv := range ch {
		votes[rv.role] = rv.vote
	}
	return votes
}

// scoreRound computes the weighted confidence average. Abstained votes
// contribute zero confidence but full weight.
func (e *Engine) scoreRound(votes map[agents.Role]agents.Vote) float64 {
	score := 0.0
	for role, vote := range votes {
		score += e.cfg.Weights[role] * vote.Confidence
	}
	return score
}

// findVeto returns the vetoing vote, if any.
func findVeto(votes map[agents.Role]agents.Vote) (agents.Vote, bool) {
	for _, vote := range votes {
		if vote.Veto {
			return vote, true
		}
	}
	return agents.Vote{}, false
}

// pickDraft selects the answer text for a passed round. The analytical
// role's draft is canonical; the empathic draft backstops an abstention.
func pickDraft(votes map[agents.Role]agents.Vote) string {
	if v := votes[agents.RoleLogos]; !v.Abstained && v.Answer != "" {
		return v.Answer
	}
	return votes[agents.RolePathos].Answer
}

// draftsFromVotes extracts the non-empty drafts for the next round's review.
func draftsFromVotes(votes map[agents.Role]agents.Vote) map[agents.Role]string {
	drafts := make(map[agents.Role]string)
	for role, vote := range votes {
		if role == agents.RoleEthos || vote.Abstained || vote.Answer == "" {
			continue
		}
		drafts[role] = vote.Answer
	}
	return drafts
}
