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
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AleutianAI/AleutianTriad/cmd/triad/config"
	"github.com/AleutianAI/AleutianTriad/pkg/telemetry"
	"github.com/AleutianAI/AleutianTriad/services/consensus"
	"github.com/AleutianAI/AleutianTriad/services/gateway"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// runServeCommand starts the HTTP gateway and blocks until SIGINT/SIGTERM.
func runServeCommand(cmd *cobra.Command, args []string) {
	cfg := &config.Global

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, telemetry.DefaultConfig())
	if err != nil {
		slog.Error("Telemetry init failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			slog.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	metrics := consensus.NewMetrics(prometheus.DefaultRegisterer)
	pipeline, journal, err := buildPipeline(cfg, metrics)
	if err != nil {
		slog.Error("Pipeline assembly failed", "error", err)
		os.Exit(1)
	}
	if journal != nil {
		defer func() { _ = journal.Close() }()
	}

	// Hot-reload keeps threshold and pattern edits visible without a
	// restart; agent and backend wiring changes still need one.
	watchPath := configFlag
	if watchPath == "" {
		watchPath, err = config.DefaultConfigPath()
		if err != nil {
			slog.Error("Could not resolve the config path", "error", err)
			os.Exit(1)
		}
	}
	watcher, err := config.NewWatcher(watchPath, func(next *config.TriadConfig) {
		config.Global = *next
		slog.Info("Config reloaded; model and backend changes apply on restart",
			"path", watchPath)
	})
	if err != nil {
		slog.Warn("Config watcher unavailable, continuing without hot reload", "error", err)
	} else {
		defer func() { _ = watcher.Close() }()
	}

	server, err := gateway.NewServer(pipeline, journal, cfg.Server.ListenAddr)
	if err != nil {
		slog.Error("Server assembly failed", "error", err)
		os.Exit(1)
	}

	if err := server.Run(ctx); err != nil {
		slog.Error("Gateway exited with error", "error", err)
		os.Exit(1)
	}
}
