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
	"errors"
	"fmt"
)

var (
	// ErrTokenNotFound is returned by Vault.Lookup when a token has no entry
	// in the current session. Reinflation recovers by leaving the token
	// verbatim; any other caller should treat this as a consistency fault.
	ErrTokenNotFound = errors.New("token not found in vault")

	// ErrVaultClosed is returned when operations are called on a destroyed vault.
	ErrVaultClosed = errors.New("vault has been destroyed")

	// ErrSessionClosed is returned when a closed session is used.
	ErrSessionClosed = errors.New("privacy session is closed")
)

// ConfigError reports a malformed redaction pattern configuration.
//
// # Description
//
// ConfigError is fatal and surfaced at load time, never per-query. A pattern
// set that fails to compile must abort startup rather than silently skip the
// broken pattern, since a skipped pattern means sensitive data passes through
// unredacted.
type ConfigError struct {
	// PatternID identifies the offending pattern.
	PatternID string

	// Err is the underlying compilation or validation error.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("redaction pattern %q: %v", e.PatternID, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
