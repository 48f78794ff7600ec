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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestJournal_RecordAndList verifies round-trip persistence and ordering.
func TestJournal_RecordAndList(t *testing.T) {
	journal, err := OpenJournal(t.TempDir())
	require.NoError(t, err)
	defer journal.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := journal.Record(JournalEntry{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Outcome:   "passed",
			Score:     0.9,
			Rounds:    1,
			Redactions: map[string]int{
				"EMAIL": i + 1,
			},
		})
		require.NoError(t, err)
	}

	entries, err := journal.List(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, 3, entries[0].Redactions["EMAIL"])
	assert.Equal(t, 1, entries[2].Redactions["EMAIL"])
	assert.NotEmpty(t, entries[0].ID, "ID is filled in on record")
}

// TestJournal_ListLimit verifies the limit is honored.
func TestJournal_ListLimit(t *testing.T) {
	journal, err := OpenJournal(t.TempDir())
	require.NoError(t, err)
	defer journal.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, journal.Record(JournalEntry{Outcome: "failed"}))
	}

	entries, err := journal.List(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// TestJournal_Empty verifies reads on a fresh journal.
func TestJournal_Empty(t *testing.T) {
	journal, err := OpenJournal(t.TempDir())
	require.NoError(t, err)
	defer journal.Close()

	entries, err := journal.List(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
