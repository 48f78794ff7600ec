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

	"github.com/AleutianAI/AleutianTriad/cmd/triad/config"
	"github.com/AleutianAI/AleutianTriad/pkg/ux"
	"github.com/spf13/cobra"
)

// runPatternsCommand prints the redaction rules active under the current
// config, in priority order.
func runPatternsCommand(cmd *cobra.Command, args []string) {
	ux.InitPersonality()

	patterns, err := buildPatterns(&config.Global)
	if err != nil {
		ux.Error(fmt.Sprintf("Pattern compilation failed: %v", err))
		os.Exit(1)
	}

	ux.Title("Active redaction patterns (priority order)")
	for _, p := range patterns {
		fmt.Printf("%s  %-10s %-12s %s\n",
			ux.IconSuccess.Render(), p.ID, p.Category, ux.Styles.Muted.Render(p.Expr))
	}
	for _, name := range config.Global.Privacy.Disabled {
		fmt.Printf("%s  %-10s %s\n",
			ux.IconPending.Render(), "disabled", name)
	}
}
