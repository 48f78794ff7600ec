// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package privacy

import (
	"log/slog"
	"sort"
	"strings"
)

// Redaction records one replaced span.
//
// Original is retained here because the Redact contract returns it to the
// caller that owns the session; nothing downstream of the session boundary
// may hold a copy.
type Redaction struct {
	// Token is the placeholder that replaced the match.
	Token string

	// Category is the pattern category that claimed the span.
	Category Category

	// Original is the matched substring.
	Original string
}

// Redactor scans input text against the configured pattern set and replaces
// matches with vault-registered placeholder tokens.
//
// # Description
//
// Patterns are applied in priority order; a span claimed by a higher-priority
// pattern is never re-matched by a lower-priority one (first-match-wins over
// a given span). Identical substrings within one call - and within one
// session, via the vault's idempotent Register - receive the same token, so
// a query stays internally consistent.
//
// # Thread Safety
//
// Redactor itself is immutable; concurrent Redact calls are safe but the
// session pipeline serializes them by design.
type Redactor struct {
	patterns []Pattern
	vault    Vault
}

// NewRedactor creates a Redactor over compiled patterns and a session vault.
//
// Patterns must come from CompilePatterns/CompileCustomPatterns; malformed
// configuration has already been rejected at load time.
func NewRedactor(patterns []Pattern, vault Vault) *Redactor {
	return &Redactor{patterns: patterns, vault: vault}
}

// span is a claimed byte range in the input.
type span struct {
	start, end int
	pattern    *Pattern
}

// Redact replaces every sensitive match in text with a placeholder token.
//
// # Description
//
// For each configured pattern, in priority order, every non-overlapping match
// is replaced with a freshly minted or reused token. Each newly observed
// value is registered in the Token Vault as a side effect.
//
// # Inputs
//
//   - text: raw query text
//
// # Outputs
//
//   - string: the redacted text
//   - []Redaction: every replacement performed, in input order
//   - error: vault failures only; pattern config errors cannot occur here
func (r *Redactor) Redact(text string) (string, []Redaction, error) {
	var claimed []span

	for i := range r.patterns {
		p := &r.patterns[i]
		for _, loc := range p.compiled.FindAllStringIndex(text, -1) {
			if overlapsAny(claimed, loc[0], loc[1]) {
				continue
			}
			claimed = append(claimed, span{start: loc[0], end: loc[1], pattern: p})
		}
	}

	if len(claimed) == 0 {
		return text, nil, nil
	}

	sort.Slice(claimed, func(i, j int) bool { return claimed[i].start < claimed[j].start })

	var (
		b          strings.Builder
		redactions []Redaction
		cursor     int
	)
	for _, s := range claimed {
		original := text[s.start:s.end]
		token, err := r.vault.Register(original, s.pattern.Category)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(text[cursor:s.start])
		b.WriteString(token)
		cursor = s.end
		redactions = append(redactions, Redaction{
			Token:    token,
			Category: s.pattern.Category,
			Original: original,
		})
	}
	b.WriteString(text[cursor:])

	slog.Debug("Redaction complete",
		"matches", len(redactions),
		"vault_entries", r.vault.Len(),
	)
	return b.String(), redactions, nil
}

// overlapsAny reports whether [start,end) intersects any claimed span.
func overlapsAny(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

// CategoryCounts summarizes redactions by category. The summary is safe to
// log and journal; it carries no original values.
func CategoryCounts(redactions []Redaction) map[string]int {
	if len(redactions) == 0 {
		return nil
	}
	counts := make(map[string]int, len(redactions))
	for _, red := range redactions {
		counts[string(red.Category)]++
	}
	return counts
}
