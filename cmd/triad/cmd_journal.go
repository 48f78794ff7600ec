// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/AleutianAI/AleutianTriad/cmd/triad/config"
	"github.com/AleutianAI/AleutianTriad/pkg/ux"
	"github.com/spf13/cobra"
)

// runJournalCommand prints recent decision metadata, newest first.
func runJournalCommand(cmd *cobra.Command, args []string) {
	ux.InitPersonality()
	cfg := &config.Global

	if !cfg.Journal.Enabled {
		ux.Warning("The journal is disabled in config (journal.enabled: false).")
		os.Exit(1)
	}

	journal, err := buildJournal(cfg)
	if err != nil {
		ux.Error(fmt.Sprintf("Could not open the journal: %v", err))
		os.Exit(1)
	}
	defer func() { _ = journal.Close() }()

	entries, err := journal.List(journalLimit)
	if err != nil {
		ux.Error(fmt.Sprintf("Could not read the journal: %v", err))
		os.Exit(1)
	}
	if len(entries) == 0 {
		ux.Muted("No decisions recorded yet.")
		return
	}

	ux.Title(fmt.Sprintf("Last %d decision(s)", len(entries)))
	for _, e := range entries {
		icon := ux.IconError
		if e.Outcome == "passed" {
			icon = ux.IconSuccess
		}
		line := fmt.Sprintf("%s  %s  %-7s score=%.2f rounds=%d",
			icon.Render(), e.Timestamp.Format("2006-01-02 15:04:05"), e.Outcome, e.Score, e.Rounds)
		if e.Vetoed {
			line += "  " + ux.Styles.Error.Render("veto: "+e.VetoReason)
		}
		if len(e.Redactions) > 0 {
			parts := make([]string, 0, len(e.Redactions))
			for category, count := range e.Redactions {
				parts = append(parts, fmt.Sprintf("%s×%d", category, count))
			}
			line += "  " + ux.Styles.Muted.Render(strings.Join(parts, ","))
		}
		fmt.Println(line)
	}
}
