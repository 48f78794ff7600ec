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
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a config file when it changes on disk. Serve mode uses
// it to pick up threshold and weight changes without a restart.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func(*TriadConfig)
	done     chan struct{}
}

// debounceWindow absorbs the write bursts editors produce on save.
const debounceWindow = 250 * time.Millisecond

// NewWatcher watches path and calls onChange with each successfully
// reloaded config. Invalid configs are logged and skipped; the previous
// config stays in effect.
func NewWatcher(path string, onChange func(*TriadConfig)) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange must not be nil")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	// Watch the directory, not the file: editors replace files on save,
	// which drops a file-level watch.
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	w := &Watcher{
		watcher:  fsWatcher,
		path:     path,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.loop()
	slog.Info("Watching config for changes", "path", path)
	return w, nil
}

func (w *Watcher) loop() {
	var timer *time.Timer
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Config watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadFrom(w.path)
	if err != nil {
		slog.Warn("Config reload rejected, keeping previous config",
			"path", w.path,
			"error", err,
		)
		return
	}
	slog.Info("Config reloaded", "path", w.path)
	w.onChange(cfg)
}

// Close stops watching. Safe to call once.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
