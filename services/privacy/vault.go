// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// This file implements the session-scoped Token Vault. Original values are
// stored in memguard enclaves (encrypted at rest in memory, mlocked, wiped on
// destroy) so that the plaintext of a redacted secret exists only inside the
// vault and only for the lifetime of one session.

package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/awnumar/memguard"
	"golang.org/x/sys/unix"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MinMlockLimitKB is the minimum mlock limit required for the secure
	// vault, in kilobytes. Each enclave consumes a small number of locked
	// pages; 256 KB covers sessions with hundreds of distinct values.
	MinMlockLimitKB = 256

	// insecureMemoryEnv opts in to the plain in-memory vault. Required on
	// systems whose mlock limits are too low for memguard; honored
	// unconditionally so the vault selection is deterministic.
	insecureMemoryEnv = "TRIAD_INSECURE_MEMORY"
)

var (
	// memguardInitOnce ensures memguard initialization happens only once.
	memguardInitOnce sync.Once

	// mlockSufficient records whether secure memory is available.
	mlockSufficient bool

	// currentMlockLimitKB stores the detected mlock limit for logging.
	currentMlockLimitKB int64
)

// =============================================================================
// Vault Interface
// =============================================================================

// Vault is the session-scoped bidirectional token store.
//
// # Description
//
// Vault maps placeholder tokens to the original values the Redactor removed.
// The mapping lives exactly as long as one session: Reset clears all entries
// and all per-category counters, and Destroy wipes the backing memory. The
// mapping is never written to durable storage.
//
// # Invariants
//
//   - Lookup after Register always succeeds within the same session.
//   - After Reset, every previously minted token resolves to ErrTokenNotFound.
//   - Per-category counters increase monotonically within a session; a token
//     is never reused for a different value.
//   - Registering the same (value, category) twice returns the same token.
//
// # Thread Safety
//
// Implementations are safe for concurrent use, although the pipeline's phase
// ordering (all redaction before any agent call, all reinflation after
// consensus) means writes and reads never actually interleave.
type Vault interface {
	// Register returns the token for value under category, minting a new
	// [CATEGORY_NN] token on first observation.
	Register(value string, category Category) (string, error)

	// Lookup resolves a token to its original value.
	// Returns ErrTokenNotFound if the token was not minted in this session.
	Lookup(token string) (string, error)

	// Len returns the number of live entries.
	Len() int

	// Reset clears all mappings and counters. Called at session start; also
	// the mechanism behind the cross-session isolation guarantee.
	Reset()

	// Destroy wipes backing memory. The vault is unusable afterwards.
	Destroy()
}

// =============================================================================
// Secure Implementation
// =============================================================================

// vaultEntry is one token's backing record.
type vaultEntry struct {
	category Category
	seq      int
	enclave  *memguard.Enclave
}

// secureVault stores original values in memguard enclaves.
//
// # Description
//
// The value→token index is keyed by SHA-256 of (category, value) so the
// plaintext never appears as a map key; it exists only sealed inside the
// enclave. Token→value lookups open the enclave, copy the value out, and
// destroy the unsealed buffer immediately.
//
// # Fields
//
//   - entries: token → sealed entry
//   - index: digest(category, value) → token, for Register idempotency
//   - counters: per-category monotonic counters
//   - destroyed: set once Destroy is called
type secureVault struct {
	mu        sync.Mutex
	entries   map[string]*vaultEntry
	index     map[string]string
	counters  map[Category]int
	destroyed bool
}

// NewVault creates a session vault.
//
// # Description
//
// Prefers the memguard-backed secure vault. Setting TRIAD_INSECURE_MEMORY=true
// selects the plain in-memory vault unconditionally, with a warning; without
// it, a system whose RLIMIT_MEMLOCK is below MinMlockLimitKB gets an error
// naming the opt-in. The insecure vault still honors every Vault invariant;
// it only loses the mlock/encryption guarantees.
//
// # Outputs
//
//   - Vault: ready for use (secure, or insecure when opted in)
//   - error: non-nil if secure memory is unavailable and no fallback allowed
func NewVault() (Vault, error) {
	initMemguard()

	if os.Getenv(insecureMemoryEnv) == "true" {
		slog.Warn("SECURITY: using insecure vault memory by explicit opt-in",
			"current_limit_kb", currentMlockLimitKB,
			"required_kb", MinMlockLimitKB,
		)
		return newInsecureVault(), nil
	}

	if !mlockSufficient {
		return nil, fmt.Errorf(
			"mlock limit insufficient for secure vault: have %d KB, need %d KB. "+
				"Raise the limit or set %s=true",
			currentMlockLimitKB, MinMlockLimitKB, insecureMemoryEnv,
		)
	}

	return newSecureVault(), nil
}

func newSecureVault() *secureVault {
	return &secureVault{
		entries:  make(map[string]*vaultEntry),
		index:    make(map[string]string),
		counters: make(map[Category]int),
	}
}

// Register returns the token for value under category.
func (v *secureVault) Register(value string, category Category) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.destroyed {
		return "", ErrVaultClosed
	}

	key := indexKey(value, category)
	if token, ok := v.index[key]; ok {
		return token, nil
	}

	v.counters[category]++
	token := mintToken(category, v.counters[category])

	v.entries[token] = &vaultEntry{
		category: category,
		seq:      v.counters[category],
		enclave:  memguard.NewEnclave([]byte(value)),
	}
	v.index[key] = token

	slog.Debug("Vault entry registered",
		"token", token,
		"category", category,
	)
	return token, nil
}

// Lookup resolves a token to its original value.
func (v *secureVault) Lookup(token string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.destroyed {
		return "", ErrVaultClosed
	}

	entry, ok := v.entries[token]
	if !ok {
		return "", ErrTokenNotFound
	}

	buf, err := entry.enclave.Open()
	if err != nil {
		// An unopenable enclave means vault corruption. This is one of the
		// two process-fatal error classes; propagate it untranslated.
		return "", fmt.Errorf("vault corruption opening enclave for %s: %w", token, err)
	}
	// buf.String() aliases the locked pages without copying; converting the
	// byte view copies the plaintext into ordinary memory so the buffer can
	// be wiped before returning.
	value := string(buf.Bytes())
	buf.Destroy()

	return value, nil
}

// Len returns the number of live entries.
func (v *secureVault) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// Reset clears all mappings and counters.
func (v *secureVault) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.destroyed {
		return
	}
	v.clearLocked()
	slog.Debug("Vault reset")
}

// Destroy wipes the vault. Idempotent.
func (v *secureVault) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.destroyed {
		return
	}
	v.clearLocked()
	v.destroyed = true
	slog.Debug("Vault destroyed")
}

// clearLocked drops all entries and counters. Caller holds v.mu.
// Enclaves are ciphertext owned by memguard's session key, so dropping the
// references is sufficient; the unsealed plaintext never outlives Lookup.
func (v *secureVault) clearLocked() {
	v.entries = make(map[string]*vaultEntry)
	v.index = make(map[string]string)
	v.counters = make(map[Category]int)
}

// =============================================================================
// Insecure Fallback Implementation
// =============================================================================

// insecureVault is the fallback for systems without sufficient mlock.
// Same invariants as secureVault, standard Go memory, best-effort wipe.
type insecureVault struct {
	mu        sync.Mutex
	values    map[string]string
	index     map[string]string
	counters  map[Category]int
	destroyed bool
}

func newInsecureVault() *insecureVault {
	return &insecureVault{
		values:   make(map[string]string),
		index:    make(map[string]string),
		counters: make(map[Category]int),
	}
}

func (v *insecureVault) Register(value string, category Category) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.destroyed {
		return "", ErrVaultClosed
	}

	key := indexKey(value, category)
	if token, ok := v.index[key]; ok {
		return token, nil
	}

	v.counters[category]++
	token := mintToken(category, v.counters[category])
	v.values[token] = value
	v.index[key] = token
	return token, nil
}

func (v *insecureVault) Lookup(token string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.destroyed {
		return "", ErrVaultClosed
	}
	value, ok := v.values[token]
	if !ok {
		return "", ErrTokenNotFound
	}
	return value, nil
}

func (v *insecureVault) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.values)
}

func (v *insecureVault) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return
	}
	v.values = make(map[string]string)
	v.index = make(map[string]string)
	v.counters = make(map[Category]int)
}

func (v *insecureVault) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return
	}
	v.values = nil
	v.index = nil
	v.counters = nil
	v.destroyed = true
}

// =============================================================================
// Helpers
// =============================================================================

// mintToken formats a placeholder token, e.g. [EMAIL_01].
func mintToken(category Category, n int) string {
	return fmt.Sprintf("[%s_%02d]", category, n)
}

// indexKey digests (category, value) so plaintext values never appear as map
// keys.
func indexKey(value string, category Category) string {
	h := sha256.New()
	h.Write([]byte(category))
	h.Write([]byte{0})
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}

// initMemguard performs one-time memguard initialization and mlock probing.
func initMemguard() {
	memguardInitOnce.Do(func() {
		memguard.CatchInterrupt()
		mlockSufficient, currentMlockLimitKB = checkMlockLimit()
		if mlockSufficient {
			slog.Info("Secure vault memory initialized",
				"mlock_limit_kb", currentMlockLimitKB,
				"required_kb", MinMlockLimitKB,
			)
		}
	})
}

// checkMlockLimit queries RLIMIT_MEMLOCK and compares against the minimum.
// Returns (sufficient, limitKB); limitKB is -1 when unlimited.
func checkMlockLimit() (bool, int64) {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_MEMLOCK, &rlimit); err != nil {
		slog.Warn("Could not determine mlock limit", "error", err)
		return true, -1
	}
	if rlimit.Cur == unix.RLIM_INFINITY {
		return true, -1
	}
	limitKB := int64(rlimit.Cur / 1024)
	return limitKB >= MinMlockLimitKB, limitKB
}

// PurgeSecureMemory wipes all memguard-allocated memory. Called during
// graceful shutdown; also triggered automatically on SIGINT/SIGTERM via
// memguard.CatchInterrupt.
func PurgeSecureMemory() {
	memguard.Purge()
	slog.Info("Purged secure vault memory")
}

// Compile-time interface compliance checks.
var _ Vault = (*secureVault)(nil)
var _ Vault = (*insecureVault)(nil)
