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
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "triad",
		Short: "A privacy-gated local deliberation engine",
		Long: `Triad answers questions by deliberation: three role agents vote on every
answer, an ethical agent can veto, and sensitive values are redacted into
placeholder tokens before any model sees the question.`,
	}

	askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question and deliberate until consensus",
		Long: `Redacts the question, runs tripartite deliberation over it, and prints
the reinflated answer once the weighted confidence clears the threshold.`,
		Args: cobra.MinimumNArgs(1),
		Run:  runAskCommand,
	}
	noRag        bool
	manifestFlag string
	configFlag   string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the deliberation pipeline over HTTP",
		Long:  `Starts the gateway server with /v1/ask, /v1/journal, /healthz, and /metrics.`,
		Run:   runServeCommand,
	}

	patternsCmd = &cobra.Command{
		Use:   "patterns",
		Short: "List the active redaction patterns",
		Run:   runPatternsCommand,
	}

	journalCmd = &cobra.Command{
		Use:   "journal",
		Short: "Show recent deliberation outcomes",
		Long:  `Prints decision metadata from the local journal. The journal never contains query or answer text.`,
		Run:   runJournalCommand,
	}
	journalLimit int

	manifestCmd = &cobra.Command{
		Use:   "manifest [file]",
		Short: "Validate a model manifest against this machine",
		Args:  cobra.ExactArgs(1),
		Run:   runManifestCommand,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to an explicit config file")

	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&noRag, "no-rag", false, "Skip knowledge retrieval and deliberate without grounding.")
	askCmd.Flags().StringVar(&manifestFlag, "manifest", "", "Resolve per-role models from a manifest file.")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(patternsCmd)

	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().IntVar(&journalLimit, "limit", 20, "Maximum entries to show.")

	rootCmd.AddCommand(manifestCmd)
}
