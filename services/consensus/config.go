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
	"fmt"
	"math"
	"time"

	"github.com/AleutianAI/AleutianTriad/services/agents"
)

// Config tunes the deliberation loop.
type Config struct {
	// Threshold is the weighted score a round must reach. A round passes
	// when score >= Threshold.
	Threshold float64

	// MaxRounds caps deliberation. Exceeding it without a passing round
	// yields a Failed result.
	MaxRounds int

	// Weights assigns per-role influence over the weighted score. The
	// weights must cover every role and sum to 1.
	Weights map[agents.Role]float64

	// AgentTimeout bounds a single agent's evaluation within a round. An
	// agent that exceeds it is recorded as abstaining.
	AgentTimeout time.Duration
}

// DefaultConfig returns the standard deliberation parameters: equal role
// weights, an 0.85 bar, and three rounds.
func DefaultConfig() Config {
	third := 1.0 / 3.0
	return Config{
		Threshold: 0.85,
		MaxRounds: 3,
		Weights: map[agents.Role]float64{
			agents.RolePathos: third,
			agents.RoleLogos:  third,
			agents.RoleEthos:  third,
		},
		AgentTimeout: 2 * time.Minute,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in (0, 1], got %v", c.Threshold)
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("max rounds must be at least 1, got %d", c.MaxRounds)
	}
	if c.AgentTimeout <= 0 {
		return fmt.Errorf("agent timeout must be positive, got %v", c.AgentTimeout)
	}

	sum := 0.0
	for _, role := range agents.AllRoles() {
		w, ok := c.Weights[role]
		if !ok {
			return fmt.Errorf("missing weight for role %s", role)
		}
		if w < 0 {
			return fmt.Errorf("weight for role %s is negative: %v", role, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("role weights must sum to 1, got %v", sum)
	}
	return nil
}
