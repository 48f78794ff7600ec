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
	"fmt"
	"log/slog"
	"regexp"
)

// tokenShape matches anything that looks like a minted placeholder:
// [CATEGORY_NN] where CATEGORY may itself contain underscores (API_KEY).
// Lookup is keyed on the full bracketed string, so the shape only needs to
// find candidates, not parse them.
var tokenShape = regexp.MustCompile(`\[[A-Z][A-Z0-9]*(?:_[A-Z0-9]+)*_\d{2,}\]`)

// Reinflator reverses redaction in final output text.
//
// # Description
//
// Scans the text for token-shaped placeholders and replaces each with the
// vault's original value. A token with no vault entry should not occur under
// correct operation; it is left verbatim and reported as a consistency
// warning, never silently dropped, since dropping could hide information
// loss.
type Reinflator struct {
	vault Vault
}

// NewReinflator creates a Reinflator reading from the session vault.
func NewReinflator(vault Vault) *Reinflator {
	return &Reinflator{vault: vault}
}

// Reinflate replaces placeholder tokens in text with their original values.
//
// # Outputs
//
//   - string: the final text with tokens resolved
//   - []string: one warning per unresolvable token, empty under correct
//     operation
func (r *Reinflator) Reinflate(text string) (string, []string) {
	var warnings []string

	out := tokenShape.ReplaceAllStringFunc(text, func(token string) string {
		value, err := r.vault.Lookup(token)
		if err != nil {
			warning := fmt.Sprintf("token %s has no vault entry; left verbatim", token)
			warnings = append(warnings, warning)
			slog.Warn("Reinflation consistency warning", "token", token)
			return token
		}
		return value
	})

	return out, warnings
}
