// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package consensus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianTriad/services/agents"
)

// fixedAgent returns a MockAgent that always votes with the given confidence.
func fixedAgent(role agents.Role, confidence float64, answer string) *agents.MockAgent {
	return &agents.MockAgent{
		RoleValue: role,
		EvaluateFunc: func(ctx context.Context, req agents.EvaluationRequest) (agents.Vote, error) {
			return agents.Vote{Role: role, Confidence: confidence, Answer: answer}, nil
		},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AgentTimeout = 5 * time.Second
	return cfg
}

// TestEngine_Run_PassesFirstRound verifies a confident triad passes in one
// round with the expected weighted score.
func TestEngine_Run_PassesFirstRound(t *testing.T) {
	engine, err := NewEngine([]agents.RoleAgent{
		fixedAgent(agents.RolePathos, 0.94, "warm answer"),
		fixedAgent(agents.RoleLogos, 0.91, "precise answer"),
		fixedAgent(agents.RoleEthos, 0.96, "no concerns"),
	}, testConfig(), nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), "query", nil)
	require.NoError(t, err)

	assert.Equal(t, StatePassed, result.Outcome)
	assert.InDelta(t, (0.94+0.91+0.96)/3.0, result.Score, 1e-9)
	assert.Len(t, result.Rounds, 1)
	assert.Equal(t, "precise answer", result.Draft, "analytical draft is canonical")
	assert.NoError(t, result.Err())
}

// TestEngine_Run_VetoOverridesConfidence verifies the veto is absolute even
// when the other roles are near-certain.
func TestEngine_Run_VetoOverridesConfidence(t *testing.T) {
	veto := &agents.MockAgent{
		RoleValue: agents.RoleEthos,
		EvaluateFunc: func(ctx context.Context, req agents.EvaluationRequest) (agents.Vote, error) {
			return agents.VetoVote("answer would expose credentials"), nil
		},
	}
	engine, err := NewEngine([]agents.RoleAgent{
		fixedAgent(agents.RolePathos, 0.99, "a"),
		fixedAgent(agents.RoleLogos, 0.99, "b"),
		veto,
	}, testConfig(), nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), "query", nil)
	require.NoError(t, err)

	assert.Equal(t, StateFailed, result.Outcome)
	assert.True(t, result.Vetoed)
	assert.Equal(t, "answer would expose credentials", result.VetoReason)
	assert.Len(t, result.Rounds, 1, "a veto ends deliberation immediately")

	var vetoErr *VetoError
	require.ErrorAs(t, result.Err(), &vetoErr)
	assert.Equal(t, 1, vetoErr.Round)
}

// TestEngine_Run_ExhaustsRounds verifies a lukewarm triad fails after
// exactly MaxRounds rounds.
func TestEngine_Run_ExhaustsRounds(t *testing.T) {
	engine, err := NewEngine([]agents.RoleAgent{
		fixedAgent(agents.RolePathos, 0.5, "a"),
		fixedAgent(agents.RoleLogos, 0.5, "b"),
		fixedAgent(agents.RoleEthos, 0.5, "c"),
	}, testConfig(), nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), "query", nil)
	require.NoError(t, err)

	assert.Equal(t, StateFailed, result.Outcome)
	assert.False(t, result.Vetoed)
	assert.Len(t, result.Rounds, 3)

	var thErr *ThresholdError
	require.ErrorAs(t, result.Err(), &thErr)
	assert.InDelta(t, 0.5, thErr.BestScore, 1e-9)
	assert.InDelta(t, 0.85, thErr.Threshold, 1e-9)
	assert.Equal(t, 3, thErr.Rounds)
	assert.Equal(t, "no consensus after 3 rounds: best score 0.5000 below threshold 0.8500",
		thErr.Error())
}

// TestEngine_Run_FeedbackAccumulates verifies retry rounds see the prior
// rounds' scores and the ethical commentary.
func TestEngine_Run_FeedbackAccumulates(t *testing.T) {
	var sawFeedback []agents.RoundFeedback
	logos := &agents.MockAgent{
		RoleValue: agents.RoleLogos,
		EvaluateFunc: func(ctx context.Context, req agents.EvaluationRequest) (agents.Vote, error) {
			sawFeedback = req.Feedback
			conf := 0.5
			if len(req.Feedback) > 0 {
				conf = 1.0
			}
			return agents.Vote{Role: agents.RoleLogos, Confidence: conf, Answer: "revised"}, nil
		},
	}
	engine, err := NewEngine([]agents.RoleAgent{
		fixedAgent(agents.RolePathos, 0.9, "a"),
		logos,
		fixedAgent(agents.RoleEthos, 0.9, "tighten the second paragraph"),
	}, testConfig(), nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), "query", nil)
	require.NoError(t, err)

	assert.Equal(t, StatePassed, result.Outcome)
	assert.Len(t, result.Rounds, 2)
	require.Len(t, sawFeedback, 1)
	assert.Equal(t, 1, sawFeedback[0].Round)
	assert.Equal(t, "tighten the second paragraph", sawFeedback[0].EthosComment)
	assert.InDelta(t, result.Rounds[0].WeightedScore, sawFeedback[0].WeightedScore, 1e-9)
}

// TestEngine_Run_AbstentionCountsInDenominator verifies an erroring agent
// drags the score down instead of shrinking the electorate.
func TestEngine_Run_AbstentionCountsInDenominator(t *testing.T) {
	broken := &agents.MockAgent{
		RoleValue: agents.RoleLogos,
		EvaluateFunc: func(ctx context.Context, req agents.EvaluationRequest) (agents.Vote, error) {
			return agents.Vote{}, errors.New("backend down")
		},
	}
	engine, err := NewEngine([]agents.RoleAgent{
		fixedAgent(agents.RolePathos, 0.9, "a"),
		broken,
		fixedAgent(agents.RoleEthos, 0.9, "c"),
	}, testConfig(), nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), "query", nil)
	require.NoError(t, err)

	assert.Equal(t, StateFailed, result.Outcome)
	assert.InDelta(t, (0.9+0+0.9)/3.0, result.Rounds[0].WeightedScore, 1e-9)
	assert.True(t, result.Rounds[0].Votes[agents.RoleLogos].Abstained)
}

// TestEngine_Run_ExactThresholdPasses verifies score >= threshold, not >.
func TestEngine_Run_ExactThresholdPasses(t *testing.T) {
	engine, err := NewEngine([]agents.RoleAgent{
		fixedAgent(agents.RolePathos, 0.85, "a"),
		fixedAgent(agents.RoleLogos, 0.85, "b"),
		fixedAgent(agents.RoleEthos, 0.85, "c"),
	}, testConfig(), nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), "query", nil)
	require.NoError(t, err)
	assert.Equal(t, StatePassed, result.Outcome)
}

// TestEngine_Run_DraftFallsBackToPathos verifies draft selection when the
// analytical role abstains but the round still passes on weights.
func TestEngine_Run_DraftFallsBackToPathos(t *testing.T) {
	cfg := testConfig()
	cfg.Weights = map[agents.Role]float64{
		agents.RolePathos: 0.5,
		agents.RoleLogos:  0.0,
		agents.RoleEthos:  0.5,
	}
	broken := &agents.MockAgent{
		RoleValue: agents.RoleLogos,
		EvaluateFunc: func(ctx context.Context, req agents.EvaluationRequest) (agents.Vote, error) {
			return agents.Vote{}, errors.New("backend down")
		},
	}
	engine, err := NewEngine([]agents.RoleAgent{
		fixedAgent(agents.RolePathos, 0.9, "empathic answer"),
		broken,
		fixedAgent(agents.RoleEthos, 0.9, "fine"),
	}, cfg, nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), "query", nil)
	require.NoError(t, err)

	assert.Equal(t, StatePassed, result.Outcome)
	assert.Equal(t, "empathic answer", result.Draft)
}

// TestEngine_Run_TimeoutBecomesAbstention verifies the per-agent deadline.
func TestEngine_Run_TimeoutBecomesAbstention(t *testing.T) {
	cfg := testConfig()
	cfg.AgentTimeout = 50 * time.Millisecond
	cfg.MaxRounds = 1

	slow := &agents.MockAgent{
		RoleValue: agents.RoleLogos,
		EvaluateFunc: func(ctx context.Context, req agents.EvaluationRequest) (agents.Vote, error) {
			select {
			case <-ctx.Done():
				return agents.Vote{}, ctx.Err()
			case <-time.After(5 * time.Second):
				return agents.Vote{Role: agents.RoleLogos, Confidence: 1}, nil
			}
		},
	}
	engine, err := NewEngine([]agents.RoleAgent{
		fixedAgent(agents.RolePathos, 0.9, "a"),
		slow,
		fixedAgent(agents.RoleEthos, 0.9, "c"),
	}, cfg, nil)
	require.NoError(t, err)

	start := time.Now()
	result, err := engine.Run(context.Background(), "query", nil)
	require.NoError(t, err)

	assert.True(t, result.Rounds[0].Votes[agents.RoleLogos].Abstained)
	assert.Less(t, time.Since(start), 2*time.Second)
}

// TestNewEngine_Validation verifies constructor checks.
func TestNewEngine_Validation(t *testing.T) {
	pathos := fixedAgent(agents.RolePathos, 0.9, "a")
	logos := fixedAgent(agents.RoleLogos, 0.9, "b")
	ethos := fixedAgent(agents.RoleEthos, 0.9, "c")

	_, err := NewEngine([]agents.RoleAgent{pathos, logos}, testConfig(), nil)
	assert.Error(t, err, "missing role should fail")

	_, err = NewEngine([]agents.RoleAgent{pathos, logos, ethos, ethos}, testConfig(), nil)
	assert.Error(t, err, "duplicate role should fail")

	bad := testConfig()
	bad.Threshold = 1.5
	_, err = NewEngine([]agents.RoleAgent{pathos, logos, ethos}, bad, nil)
	assert.Error(t, err, "invalid config should fail")
}

// TestConfig_Validate covers weight consistency checks.
func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Weights[agents.RoleLogos] = 0.9
	assert.Error(t, cfg.Validate(), "weights must sum to 1")

	cfg = DefaultConfig()
	delete(cfg.Weights, agents.RoleEthos)
	assert.Error(t, cfg.Validate(), "every role needs a weight")

	cfg = DefaultConfig()
	cfg.MaxRounds = 0
	assert.Error(t, cfg.Validate())
}
