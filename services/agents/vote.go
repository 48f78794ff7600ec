// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agents defines the tripartite role-agent capability: three
// configured variants of one interface (Pathos/intent, Logos/reasoning,
// Ethos/verification), each producing a structured vote per consensus round.
package agents

import (
	"fmt"
	"time"
)

// Role identifies one of the three reasoning roles.
type Role string

const (
	// RolePathos interprets user intent.
	RolePathos Role = "pathos"

	// RoleLogos produces the reasoned draft answer, consuming retrieved
	// context from the knowledge collaborator.
	RoleLogos Role = "logos"

	// RoleEthos verifies the drafts of the other two and holds veto power.
	RoleEthos Role = "ethos"
)

// AllRoles returns the three roles in canonical order.
func AllRoles() []Role {
	return []Role{RolePathos, RoleLogos, RoleEthos}
}

// Valid reports whether r names a known role.
func (r Role) Valid() bool {
	switch r {
	case RolePathos, RoleLogos, RoleEthos:
		return true
	}
	return false
}

// Vote is one agent's structured output for one round.
//
// # Description
//
// Votes are immutable once produced. Veto is a tagged outcome distinct from
// low confidence: only Ethos may set it, and the consensus decision rule
// treats it as an absolute rejection rather than a number. An abstention
// (timeout or internal failure) carries confidence 0 and still counts in the
// weighted denominator.
type Vote struct {
	// Role identifies the voting agent.
	Role Role

	// Confidence is in [0,1]. Zero for abstentions and vetoes.
	Confidence float64

	// Answer is the structured answer content. For Pathos this is the
	// intent interpretation; for Logos the draft answer; for Ethos the
	// verification commentary.
	Answer string

	// Abstained marks a timeout or internal failure stand-in vote.
	Abstained bool

	// Veto marks an unconditional rejection. Ethos only.
	Veto bool

	// VetoReason explains a veto for the terminal failure report.
	VetoReason string

	// Elapsed is how long the evaluation took.
	Elapsed time.Duration
}

// AbstainVote builds the stand-in vote recorded when an agent times out or
// fails internally.
func AbstainVote(role Role) Vote {
	return Vote{Role: role, Confidence: 0, Abstained: true}
}

// VetoVote builds an Ethos veto outcome.
func VetoVote(reason string) Vote {
	return Vote{Role: RoleEthos, Veto: true, VetoReason: reason}
}

// String renders a compact loggable form. Never includes answer content,
// which may be long; the vote summary is safe for journals.
func (v Vote) String() string {
	switch {
	case v.Veto:
		return fmt.Sprintf("%s: VETO (%s)", v.Role, v.VetoReason)
	case v.Abstained:
		return fmt.Sprintf("%s: abstained", v.Role)
	default:
		return fmt.Sprintf("%s: %.3f", v.Role, v.Confidence)
	}
}

// RoundFeedback carries a prior round's outcome back into the next round's
// evaluation requests, so agents can address what blocked consensus.
type RoundFeedback struct {
	// Round is the completed round number (1-based).
	Round int

	// WeightedScore is the round's aggregate confidence.
	WeightedScore float64

	// EthosComment is Ethos's verification commentary from that round.
	EthosComment string
}

// EvaluationRequest is the input to one agent evaluation.
type EvaluationRequest struct {
	// Query is the redacted user query. Raw query text never reaches an
	// agent; redaction completes before any agent call begins.
	Query string

	// ContextChunks is retrieved knowledge for Logos. Other roles ignore it.
	ContextChunks []string

	// Drafts carries the other roles' answers for Ethos review.
	Drafts map[Role]string

	// Feedback lists prior rounds' outcomes, oldest first. Empty in round 1.
	Feedback []RoundFeedback
}
