// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLevel_String verifies level names.
func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

// TestParseLevel verifies config string mapping.
func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

// TestNew_FileLogging verifies file creation and JSON content.
func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "testsvc",
		Quiet:   true,
	})

	logger.Info("something happened", "count", 3)
	require.NoError(t, logger.Close())

	expected := filepath.Join(dir, "testsvc_"+time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(expected)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "something happened", entry["msg"])
	assert.Equal(t, "testsvc", entry["service"])
	assert.EqualValues(t, 3, entry["count"])
}

// TestNew_LevelFilter verifies messages below the level are dropped.
func TestNew_LevelFilter(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelWarn,
		LogDir:  dir,
		Service: "filter",
		Quiet:   true,
	})

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")
	require.NoError(t, logger.Close())

	path := filepath.Join(dir, "filter_"+time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.NotContains(t, content, "dropped")
	assert.Contains(t, content, "kept")
}

// TestWith verifies child loggers carry extra attributes.
func TestWith(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		LogDir:  dir,
		Service: "parent",
		Quiet:   true,
	})

	child := logger.With("session_id", "abc123")
	child.Info("scoped message")
	require.NoError(t, logger.Close())

	path := filepath.Join(dir, "parent_"+time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "abc123")
}

// TestClose_Idempotent verifies double-close is safe.
func TestClose_Idempotent(t *testing.T) {
	logger := New(Config{LogDir: t.TempDir(), Service: "x", Quiet: true})
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())
}

// TestMultiHandler verifies fan-out and level gating.
func TestMultiHandler(t *testing.T) {
	var a, b strings.Builder
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}

	logger := slog.New(h)
	logger.Info("hello")

	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.Contains(t, a.String(), "hello")
	assert.Empty(t, b.String(), "error-only handler skips info records")
}

// TestExpandPath verifies ~ expansion.
func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".triad/logs"), expandPath("~/.triad/logs"))
	assert.Equal(t, "/var/log/triad", expandPath("/var/log/triad"))
	assert.Equal(t, "relative/path", expandPath("relative/path"))
}
