// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// JournalEntry is the durable record of one deliberation.
//
// The journal stores decision metadata only. No query text, no answer text,
// and no original sensitive values ever reach disk; redactions appear only
// as per-category counts.
type JournalEntry struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Outcome    string         `json:"outcome"`
	Score      float64        `json:"score"`
	Rounds     int            `json:"rounds"`
	Vetoed     bool           `json:"vetoed,omitempty"`
	VetoReason string         `json:"veto_reason,omitempty"`
	Redactions map[string]int `json:"redactions,omitempty"`
}

// Journal persists deliberation records in a local Badger store.
type Journal struct {
	db *badger.DB
}

// journalKeyPrefix namespaces journal entries; keys sort by timestamp so a
// reverse iteration yields newest-first.
const journalKeyPrefix = "decision:"

// OpenJournal opens (or creates) the journal at dir.
func OpenJournal(dir string) (*Journal, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open decision journal at %s: %w", dir, err)
	}
	slog.Info("Opened decision journal", "dir", dir)
	return &Journal{db: db}, nil
}

// Record appends entry to the journal. A zero ID and Timestamp are filled
// in.
func (j *Journal) Record(entry JournalEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}
	key := fmt.Sprintf("%s%s:%s", journalKeyPrefix,
		entry.Timestamp.Format(time.RFC3339Nano), entry.ID)

	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (j *Journal) List(limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	var entries []JournalEntry
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(journalKeyPrefix)
		// Reverse iteration needs a seek key past the prefix range.
		seek := append([]byte(journalKeyPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(entries) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry JournalEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					slog.Warn("Skipping corrupt journal entry",
						"key", string(it.Item().Key()),
						"error", err,
					)
					return nil
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}

// Close flushes and closes the underlying store.
func (j *Journal) Close() error {
	return j.db.Close()
}
