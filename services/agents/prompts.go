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
	"fmt"
	"strings"
)

// All three prompts demand the same JSON envelope so parsing is shared:
//
//	{"confidence": 0.0-1.0, "answer": "...", "veto": bool, "reason": "..."}
//
// Only the Ethos prompt mentions veto; the parser ignores veto from any
// other role.

const voteEnvelope = `Respond with ONLY a JSON object, no prose around it:
{"confidence": <0.0-1.0>, "answer": "<your output>", "veto": false, "reason": ""}`

const pathosInstructions = `You are the intent-interpretation member of a three-member review panel.
Read the user's query and state, in one or two sentences, what the user is
actually trying to accomplish. Set "answer" to that interpretation and
"confidence" to how certain you are that it matches the user's need.`

const logosInstructions = `You are the reasoning member of a three-member review panel.
Using the query and the retrieved context below, produce the best complete
answer you can. Set "answer" to the draft answer and "confidence" to your
certainty in the reasoning chain behind it. If the context is irrelevant,
say so in the answer rather than inventing support.`

const ethosInstructions = `You are the verification member of a three-member review panel.
Review the drafts below for safety, accuracy, and feasibility. Set "answer"
to your verification commentary and "confidence" to how sound the best draft
is. If the draft is unsafe, materially inaccurate, or infeasible, set "veto"
to true and explain in "reason" - a veto is final and is not the same as low
confidence, so reserve it for drafts that must not be released.`

// buildPrompt assembles the role-specific prompt for one evaluation.
func buildPrompt(role Role, req EvaluationRequest) string {
	var b strings.Builder

	switch role {
	case RolePathos:
		b.WriteString(pathosInstructions)
	case RoleLogos:
		b.WriteString(logosInstructions)
	case RoleEthos:
		b.WriteString(ethosInstructions)
	}
	b.WriteString("\n\n")

	if len(req.Feedback) > 0 {
		b.WriteString("Earlier rounds did not reach consensus:\n")
		for _, fb := range req.Feedback {
			fmt.Fprintf(&b, "- round %d scored %.3f", fb.Round, fb.WeightedScore)
			if fb.EthosComment != "" {
				fmt.Fprintf(&b, "; verification flagged: %s", fb.EthosComment)
			}
			b.WriteString("\n")
		}
		b.WriteString("Address what blocked agreement.\n\n")
	}

	if role == RoleLogos && len(req.ContextChunks) > 0 {
		b.WriteString("Retrieved context:\n")
		for i, chunk := range req.ContextChunks {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, chunk)
		}
		b.WriteString("\n")
	}

	if role == RoleEthos && len(req.Drafts) > 0 {
		b.WriteString("Drafts under review:\n")
		// Canonical order keeps prompts deterministic for a given vote set.
		for _, r := range AllRoles() {
			if draft, ok := req.Drafts[r]; ok && draft != "" {
				fmt.Fprintf(&b, "%s draft: %s\n", r, draft)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User query: %s\n\n%s", req.Query, voteEnvelope)
	return b.String()
}
