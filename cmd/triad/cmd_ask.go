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
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AleutianAI/AleutianTriad/cmd/triad/config"
	"github.com/AleutianAI/AleutianTriad/pkg/ux"
	"github.com/spf13/cobra"
)

// runAskCommand redacts the question, deliberates to consensus, and prints
// the reinflated answer.
//
// Exit codes: 0 on consensus, 2 on veto, 1 otherwise.
func runAskCommand(cmd *cobra.Command, args []string) {
	ux.InitPersonality()
	question := strings.Join(args, " ")
	cfg := &config.Global

	pipeline, journal, err := buildPipeline(cfg, nil)
	if err != nil {
		ux.Error(fmt.Sprintf("Failed to assemble the pipeline: %v", err))
		os.Exit(1)
	}
	if journal != nil {
		defer func() { _ = journal.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spin := ux.NewSpinner("Deliberating...")
	spin.Start()
	answer, err := pipeline.Ask(ctx, question)
	spin.Stop()
	if err != nil {
		ux.Error(fmt.Sprintf("Deliberation failed: %v", err))
		os.Exit(1)
	}

	ux.Verdict(answer.Passed, answer.Vetoed, answer.Score, answer.Rounds)
	ux.Muted(ux.ScoreBar(answer.Score, cfg.Consensus.Threshold, 24))

	if len(answer.Redactions) > 0 {
		parts := make([]string, 0, len(answer.Redactions))
		for category, count := range answer.Redactions {
			parts = append(parts, fmt.Sprintf("%s×%d", category, count))
		}
		ux.Info("Redacted before deliberation: " + strings.Join(parts, ", "))
	}
	for _, w := range answer.Warnings {
		ux.Warning(w)
	}

	switch {
	case answer.Passed:
		fmt.Println()
		fmt.Println(answer.Text)
		if len(answer.Sources) > 0 {
			fmt.Println()
			ux.Muted("Sources:")
			for _, src := range answer.Sources {
				ux.Muted("  " + string(ux.IconBullet) + " " + src)
			}
		}
	case answer.Vetoed:
		ux.Error("Veto: " + answer.VetoReason)
		os.Exit(2)
	default:
		ux.Error(fmt.Sprintf("No draft cleared the %.2f threshold in %d round(s).",
			cfg.Consensus.Threshold, answer.Rounds))
		os.Exit(1)
	}
}
