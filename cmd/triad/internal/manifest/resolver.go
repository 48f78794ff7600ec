// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package manifest

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// ModelHandle is a resolved per-role model assignment.
type ModelHandle struct {
	// Role is the agent role the model serves.
	Role string

	// Model is the backend model identifier.
	Model string

	// Quantization is the selected weight precision.
	Quantization string
}

// MemoryProber reports available system memory. Abstracted for testability.
type MemoryProber interface {
	// SystemRAMBytes returns total system RAM in bytes.
	SystemRAMBytes() (int64, error)
}

// Resolver checks a manifest against local hardware and produces per-role
// model handles.
type Resolver struct {
	prober MemoryProber
}

// NewResolver creates a resolver. prober may be nil for the platform
// default.
func NewResolver(prober MemoryProber) *Resolver {
	if prober == nil {
		prober = &procMemoryProber{}
	}
	return &Resolver{prober: prober}
}

// Resolve verifies the RAM floor and returns the role assignments.
func (r *Resolver) Resolve(m *Manifest) ([]ModelHandle, error) {
	if m == nil {
		return nil, fmt.Errorf("manifest must not be nil")
	}

	if m.MinRAMBytes > 0 {
		ram, err := r.prober.SystemRAMBytes()
		if err != nil {
			return nil, fmt.Errorf("failed to probe system memory: %w", err)
		}
		if ram < m.MinRAMBytes {
			return nil, fmt.Errorf("manifest %q needs %d MB RAM, system has %d MB",
				m.Name, m.MinRAMBytes/1024/1024, ram/1024/1024)
		}
	}

	handles := make([]ModelHandle, 0, len(requiredRoles))
	for _, role := range requiredRoles {
		rec := m.Recommendations[role]
		handles = append(handles, ModelHandle{
			Role:         role,
			Model:        rec.Model,
			Quantization: rec.Quantization,
		})
	}
	return handles, nil
}

// procMemoryProber reads /proc/meminfo on Linux. Other platforms get a
// permissive default so a missing probe never blocks local use.
type procMemoryProber struct{}

func (procMemoryProber) SystemRAMBytes() (int64, error) {
	if runtime.GOOS != "linux" {
		return 16 << 30, nil
	}

	file, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "MemTotal:") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return 0, fmt.Errorf("unexpected format in /proc/meminfo")
			}
			memKB, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return 0, err
			}
			return memKB * 1024, nil
		}
	}
	return 0, fmt.Errorf("MemTotal not found in /proc/meminfo")
}

// MockMemoryProber is a test double for MemoryProber.
type MockMemoryProber struct {
	// RAMBytes is returned by SystemRAMBytes.
	RAMBytes int64

	// Err is returned by SystemRAMBytes when set.
	Err error
}

// SystemRAMBytes returns the configured values.
func (m *MockMemoryProber) SystemRAMBytes() (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return m.RAMBytes, nil
}

// Compile-time interface compliance checks.
var (
	_ MemoryProber = procMemoryProber{}
	_ MemoryProber = (*MockMemoryProber)(nil)
)
