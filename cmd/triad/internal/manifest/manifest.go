// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package manifest describes model bundles the triad can run and resolves
// them against the local hardware.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// Manifest describes one deployable model bundle.
type Manifest struct {
	// Name identifies the bundle.
	Name string `json:"name" validate:"required"`

	// Description is a human-readable summary.
	Description string `json:"description"`

	// MinRAMBytes is the RAM floor required to run the bundle.
	MinRAMBytes int64 `json:"min_ram_bytes" validate:"min=0"`

	// MinVRAMBytes is the GPU VRAM floor. Zero means CPU inference is
	// acceptable.
	MinVRAMBytes int64 `json:"min_vram_bytes" validate:"min=0"`

	// GPULayers is the number of layers to offload to the GPU.
	GPULayers int `json:"gpu_layers" validate:"min=0"`

	// ContextSize is the context window in tokens.
	ContextSize int `json:"context_size" validate:"min=0"`

	// Recommendations maps role name to its recommended model.
	Recommendations map[string]Recommendation `json:"recommendations" validate:"required,dive"`
}

// Recommendation names a model for a single role.
type Recommendation struct {
	// Model is the backend model identifier, e.g. "llama3.1:8b".
	Model string `json:"model" validate:"required"`

	// Quantization is the weight precision tier.
	Quantization string `json:"quantization" validate:"required,oneof=Q4 Q5 Q8 F16"`

	// RepoID optionally names the upstream weights repository.
	RepoID string `json:"repo_id,omitempty"`

	// Filename optionally names the weights file within the repo.
	Filename string `json:"filename,omitempty"`

	// SizeBytes is the weights file size, when known.
	SizeBytes int64 `json:"size_bytes,omitempty" validate:"min=0"`

	// SHA256 is the weights file checksum, when known.
	SHA256 string `json:"sha256,omitempty" validate:"omitempty,len=64,hexadecimal"`
}

var validate = validator.New()

// requiredRoles must each have a recommendation for the manifest to be
// usable.
var requiredRoles = []string{"pathos", "logos", "ethos"}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks structural constraints and role coverage.
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}
	for _, role := range requiredRoles {
		if _, ok := m.Recommendations[role]; !ok {
			return fmt.Errorf("invalid manifest: missing recommendation for role %q", role)
		}
	}
	return nil
}
