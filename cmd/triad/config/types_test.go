// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultConfig_Valid verifies the shipped defaults pass validation.
func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

// TestValidate_WeightSum verifies the weight-sum rule.
func TestValidate_WeightSum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Consensus.Weights["logos"] = 0.9
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	delete(cfg.Consensus.Weights, "ethos")
	assert.Error(t, cfg.Validate())
}

// TestValidate_Threshold verifies bound checks.
func TestValidate_Threshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Consensus.Threshold = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Consensus.Threshold = 1.2
	assert.Error(t, cfg.Validate())
}

// TestValidate_Backend verifies the backend enum.
func TestValidate_Backend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Backend = "carrier-pigeon"
	assert.Error(t, cfg.Validate())
}

// TestValidate_ConditionalFields verifies enable/require coupling.
func TestValidate_ConditionalFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Knowledge.Enabled = true
	cfg.Knowledge.WeaviateURL = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Journal.Enabled = true
	cfg.Journal.Dir = ""
	assert.Error(t, cfg.Validate())
}

// TestLoadFrom verifies YAML parsing layered over defaults.
func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triad.yaml")
	content := `
consensus:
  threshold: 0.9
  max_rounds: 2
  weights:
    pathos: 0.25
    logos: 0.5
    ethos: 0.25
  agent_timeout_seconds: 30
llm:
  backend: ollama
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.9, cfg.Consensus.Threshold, 1e-9)
	assert.Equal(t, 2, cfg.Consensus.MaxRounds)
	assert.InDelta(t, 0.5, cfg.Consensus.Weights["logos"], 1e-9)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, ":8090", cfg.Server.ListenAddr)
}

// TestLoadFrom_InvalidRejected verifies a bad file fails loudly.
func TestLoadFrom_InvalidRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triad.yaml")
	content := `
consensus:
  threshold: 7
  weights:
    pathos: 0.5
    logos: 0.25
    ethos: 0.25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

// TestLoadFrom_Missing verifies missing files error.
func TestLoadFrom_Missing(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// TestWatcher_Reload verifies on-disk edits reach the callback.
func TestWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triad.yaml")

	writeConfig := func(threshold string) {
		content := `
consensus:
  threshold: ` + threshold + `
  max_rounds: 3
  weights:
    pathos: 0.34
    logos: 0.33
    ethos: 0.33
  agent_timeout_seconds: 30
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	writeConfig("0.85")

	reloaded := make(chan *TriadConfig, 1)
	watcher, err := NewWatcher(path, func(cfg *TriadConfig) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	defer watcher.Close()

	writeConfig("0.9")

	select {
	case cfg := <-reloaded:
		assert.InDelta(t, 0.9, cfg.Consensus.Threshold, 1e-9)
	case <-time.After(5 * time.Second):
		t.Fatal("config reload not observed")
	}
}

// TestWatcher_InvalidKeptOut verifies a broken edit never reaches the
// callback.
func TestWatcher_InvalidKeptOut(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("consensus:\n  threshold: 0.85\n  max_rounds: 3\n  weights: {pathos: 0.34, logos: 0.33, ethos: 0.33}\n  agent_timeout_seconds: 30\n"), 0644))

	reloaded := make(chan *TriadConfig, 1)
	watcher, err := NewWatcher(path, func(cfg *TriadConfig) {
		reloaded <- cfg
	})
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, os.WriteFile(path, []byte("consensus: [broken"), 0644))

	select {
	case <-reloaded:
		t.Fatal("invalid config must not trigger the callback")
	case <-time.After(time.Second):
	}
}
