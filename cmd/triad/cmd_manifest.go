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

	"github.com/AleutianAI/AleutianTriad/cmd/triad/internal/manifest"
	"github.com/AleutianAI/AleutianTriad/pkg/ux"
	"github.com/spf13/cobra"
)

// runManifestCommand validates a model manifest against this machine and
// prints the role assignments it would produce.
func runManifestCommand(cmd *cobra.Command, args []string) {
	ux.InitPersonality()

	m, err := manifest.LoadManifest(args[0])
	if err != nil {
		ux.Error(fmt.Sprintf("Manifest rejected: %v", err))
		os.Exit(1)
	}

	handles, err := manifest.NewResolver(nil).Resolve(m)
	if err != nil {
		ux.Error(fmt.Sprintf("Manifest does not fit this machine: %v", err))
		os.Exit(1)
	}

	ux.Success(fmt.Sprintf("Manifest %q is valid for this machine.", m.Name))
	for _, h := range handles {
		fmt.Printf("  %s %-7s %s %s\n",
			ux.IconBullet, h.Role, h.Model, ux.Styles.Muted.Render("("+h.Quantization+")"))
	}
}
