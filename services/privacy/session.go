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
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session owns one vault lifetime and the redactor/reinflator bound to it.
//
// # Description
//
// The vault's per-category counters are session state, owned here and passed
// by reference into the Redactor and Reinflator rather than held globally.
// That keeps sessions independently testable and is what makes the isolation
// guarantee hold: a token minted in session A carries no information usable
// to resolve values in session B, because B starts from a freshly reset
// vault.
//
// # Lifecycle
//
//	sess, err := privacy.NewSession(cfg)
//	defer sess.Close()
//
// Close destroys the vault; the mapping never reaches durable storage.
//
// # Thread Safety
//
// Session is safe for concurrent use, but a session belongs to exactly one
// query pipeline and is never shared across concurrent sessions.
type Session struct {
	// ID uniquely identifies the session for logging.
	ID string

	mu         sync.Mutex
	vault      Vault
	redactor   *Redactor
	reinflator *Reinflator
	createdAt  time.Time
	closed     bool
}

// NewSession creates a session with a fresh vault and the given pattern
// configuration. The vault is reset on creation so no prior state can leak
// in.
func NewSession(cfg PatternConfig) (*Session, error) {
	patterns, err := CompilePatterns(cfg)
	if err != nil {
		return nil, err
	}
	return newSessionWithPatterns(patterns)
}

// NewSessionWithPatterns creates a session over an explicit compiled pattern
// set, including custom patterns.
func NewSessionWithPatterns(patterns []Pattern) (*Session, error) {
	return newSessionWithPatterns(patterns)
}

func newSessionWithPatterns(patterns []Pattern) (*Session, error) {
	vault, err := NewVault()
	if err != nil {
		return nil, err
	}
	vault.Reset()

	s := &Session{
		ID:         uuid.New().String(),
		vault:      vault,
		redactor:   NewRedactor(patterns, vault),
		reinflator: NewReinflator(vault),
		createdAt:  time.Now(),
	}
	slog.Debug("Privacy session created", "session_id", s.ID, "patterns", len(patterns))
	return s, nil
}

// Redact runs the session redactor. See Redactor.Redact.
func (s *Session) Redact(text string) (string, []Redaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", nil, ErrSessionClosed
	}
	return s.redactor.Redact(text)
}

// Reinflate runs the session reinflator. See Reinflator.Reinflate.
func (s *Session) Reinflate(text string) (string, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", nil, ErrSessionClosed
	}
	out, warnings := s.reinflator.Reinflate(text)
	return out, warnings, nil
}

// VaultLen reports the number of live vault entries. Diagnostic only.
func (s *Session) VaultLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	return s.vault.Len()
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Close destroys the session vault. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.vault.Destroy()
	s.closed = true
	slog.Debug("Privacy session closed",
		"session_id", s.ID,
		"lifetime_ms", time.Since(s.createdAt).Milliseconds(),
	)
}
