// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package privacy implements the redaction/tokenization layer that runs
// before any query content reaches a model or leaves the process.
//
// The pipeline has three cooperating pieces with a strict phase discipline
// per query:
//
//	Redactor (writes vault) → role agents / consensus → Reinflator (reads vault)
//
// The Token Vault is session-scoped and never persisted. Original values are
// held in memguard enclaves so they are encrypted at rest in memory and wiped
// on session close.
package privacy

import (
	"regexp"
)

// Category identifies the class of sensitive data a pattern matches.
//
// The category name is embedded in minted tokens ([EMAIL_01]), so values
// must be upper-case ASCII with underscores only.
type Category string

const (
	// CategoryEmail matches email addresses.
	CategoryEmail Category = "EMAIL"

	// CategoryAPIKey matches common API key shapes (sk-..., ghp_..., xoxb-...).
	CategoryAPIKey Category = "API_KEY"

	// CategoryAWSKey matches AWS access key IDs.
	CategoryAWSKey Category = "AWS_KEY"

	// CategoryJWT matches JSON Web Tokens.
	CategoryJWT Category = "JWT"

	// CategorySSN matches US social security numbers.
	CategorySSN Category = "SSN"

	// CategoryCreditCard matches 13-16 digit payment card numbers.
	CategoryCreditCard Category = "CREDIT_CARD"

	// CategoryPhone matches North American phone numbers.
	CategoryPhone Category = "PHONE"

	// CategoryIPAddress matches IPv4 addresses.
	CategoryIPAddress Category = "IP_ADDR"
)

// Pattern defines a single redaction rule.
//
// # Description
//
// Patterns are evaluated in slice order (priority order). A span claimed by
// an earlier pattern is never re-matched by a later one, so overlapping
// matches resolve deterministically.
//
// # Thread Safety
//
// Pattern is immutable after CompilePatterns returns and safe for concurrent
// use.
type Pattern struct {
	// ID is the unique pattern identifier (e.g., PRIV-001).
	ID string

	// Category is the token category minted for matches.
	Category Category

	// Expr is the regular expression source.
	Expr string

	// compiled is the compiled regex, set by CompilePatterns.
	compiled *regexp.Regexp
}

// PatternConfig toggles individual built-in pattern categories.
//
// Field names mirror the privacy.* configuration keys. The zero value
// disables everything; use DefaultPatternConfig for the recommended set.
type PatternConfig struct {
	RedactEmails       bool
	RedactAPIKeys      bool
	RedactJWTs         bool
	RedactSSN          bool
	RedactCreditCards  bool
	RedactPhoneNumbers bool
	RedactIPAddresses  bool
}

// DefaultPatternConfig enables every built-in category.
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		RedactEmails:       true,
		RedactAPIKeys:      true,
		RedactJWTs:         true,
		RedactSSN:          true,
		RedactCreditCards:  true,
		RedactPhoneNumbers: true,
		RedactIPAddresses:  true,
	}
}

// builtinPatterns is the ordered rule set. Order is priority: key material
// first (an AWS key inside a URL must not be claimed as part of a lower
// priority match), then identifiers that embed digits, then network
// addresses. SSN precedes phone because 123-45-6789 also satisfies loose
// phone shapes.
var builtinPatterns = []Pattern{
	{ID: "PRIV-001", Category: CategoryAWSKey, Expr: `\bAKIA[0-9A-Z]{16}\b`},
	{ID: "PRIV-002", Category: CategoryAPIKey, Expr: `\b(?:sk|pk|rk|ghp|gho|ghs|xoxb|xoxp)[-_][A-Za-z0-9_\-]{10,}\b`},
	{ID: "PRIV-003", Category: CategoryJWT, Expr: `\beyJ[A-Za-z0-9_\-]{8,}\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\b`},
	{ID: "PRIV-004", Category: CategoryEmail, Expr: `\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`},
	{ID: "PRIV-005", Category: CategorySSN, Expr: `\b\d{3}-\d{2}-\d{4}\b`},
	{ID: "PRIV-006", Category: CategoryCreditCard, Expr: `\b\d{4}[ \-]?\d{4}[ \-]?\d{4}[ \-]?\d{1,4}\b`},
	{ID: "PRIV-007", Category: CategoryPhone, Expr: `\b\+?1?[-. ]?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}\b`},
	{ID: "PRIV-008", Category: CategoryIPAddress, Expr: `\b(?:\d{1,3}\.){3}\d{1,3}\b`},
}

// CompilePatterns returns the enabled built-in patterns, compiled, in
// priority order.
//
// # Description
//
// Compilation failures are fatal (ConfigError) and surface at load time.
// A disabled category is simply absent from the returned slice.
//
// # Inputs
//
//   - cfg: category toggles (see PatternConfig)
//
// # Outputs
//
//   - []Pattern: compiled patterns in priority order
//   - error: *ConfigError on any compilation failure
func CompilePatterns(cfg PatternConfig) ([]Pattern, error) {
	enabled := map[Category]bool{
		CategoryEmail:      cfg.RedactEmails,
		CategoryAPIKey:     cfg.RedactAPIKeys,
		CategoryAWSKey:     cfg.RedactAPIKeys,
		CategoryJWT:        cfg.RedactJWTs,
		CategorySSN:        cfg.RedactSSN,
		CategoryCreditCard: cfg.RedactCreditCards,
		CategoryPhone:      cfg.RedactPhoneNumbers,
		CategoryIPAddress:  cfg.RedactIPAddresses,
	}

	var out []Pattern
	for _, p := range builtinPatterns {
		if !enabled[p.Category] {
			continue
		}
		re, err := regexp.Compile(p.Expr)
		if err != nil {
			return nil, &ConfigError{PatternID: p.ID, Err: err}
		}
		p.compiled = re
		out = append(out, p)
	}
	return out, nil
}

// CompileCustomPatterns compiles user-supplied patterns in the order given.
// Callers place them ahead of the built-ins so site-specific identifiers
// (employee IDs, internal hostnames) claim their spans before the generic
// digit rules can.
func CompileCustomPatterns(patterns []Pattern) ([]Pattern, error) {
	out := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		if p.ID == "" || p.Category == "" || p.Expr == "" {
			return nil, &ConfigError{PatternID: p.ID, Err: errMissingField}
		}
		re, err := regexp.Compile(p.Expr)
		if err != nil {
			return nil, &ConfigError{PatternID: p.ID, Err: err}
		}
		p.compiled = re
		out = append(out, p)
	}
	return out, nil
}

var errMissingField = errInvalidPattern("pattern requires id, category, and expr")

type errInvalidPattern string

func (e errInvalidPattern) Error() string { return string(e) }
