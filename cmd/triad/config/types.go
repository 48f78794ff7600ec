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

	"github.com/go-playground/validator/v10"
)

// TriadConfig is the root configuration, read from ~/.triad/triad.yaml.
type TriadConfig struct {
	// Consensus tunes the deliberation loop.
	Consensus ConsensusConfig `yaml:"consensus"`

	// Agents selects per-role models and timeouts.
	Agents AgentsConfig `yaml:"agents"`

	// Privacy toggles redaction categories.
	Privacy PrivacyConfig `yaml:"privacy"`

	// LLM selects the model backend.
	LLM LLMConfig `yaml:"llm"`

	// Knowledge configures retrieval grounding.
	Knowledge KnowledgeConfig `yaml:"knowledge"`

	// Journal configures the local decision journal.
	Journal JournalConfig `yaml:"journal"`

	// Server configures the HTTP serve mode.
	Server ServerConfig `yaml:"server"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`
}

type ConsensusConfig struct {
	// Threshold is the weighted score a round must reach (0-1].
	Threshold float64 `yaml:"threshold" validate:"gt=0,lte=1"`

	// MaxRounds caps deliberation rounds.
	MaxRounds int `yaml:"max_rounds" validate:"min=1,max=10"`

	// Weights assigns per-role influence, keyed by role name. The three
	// weights must sum to 1.
	Weights map[string]float64 `yaml:"weights" validate:"required,len=3"`

	// AgentTimeoutSeconds bounds a single agent evaluation.
	AgentTimeoutSeconds int `yaml:"agent_timeout_seconds" validate:"min=1"`
}

type AgentsConfig struct {
	Pathos AgentConfig `yaml:"pathos"`
	Logos  AgentConfig `yaml:"logos"`
	Ethos  AgentConfig `yaml:"ethos"`
}

type AgentConfig struct {
	// Model names the model this role runs on.
	Model string `yaml:"model" validate:"required"`
}

type PrivacyConfig struct {
	// Disabled lists redaction categories to switch off, e.g. ["IP_ADDR"].
	Disabled []string `yaml:"disabled"`

	// CustomPatterns adds operator-defined patterns.
	CustomPatterns []CustomPattern `yaml:"custom_patterns"`
}

type CustomPattern struct {
	ID       string `yaml:"id" validate:"required"`
	Category string `yaml:"category" validate:"required"`
	Regex    string `yaml:"regex" validate:"required"`
}

type LLMConfig struct {
	// Backend can be "ollama" or "openai".
	Backend string `yaml:"backend" validate:"oneof=ollama openai"`

	// BaseURL overrides the backend endpoint.
	BaseURL string `yaml:"base_url,omitempty"`
}

type KnowledgeConfig struct {
	// Enabled switches retrieval grounding on.
	Enabled bool `yaml:"enabled"`

	// WeaviateURL is the Weaviate endpoint.
	WeaviateURL string `yaml:"weaviate_url,omitempty"`

	// ClassName is the document class to search.
	ClassName string `yaml:"class_name,omitempty"`

	// Limit caps retrieved chunks per query.
	Limit int `yaml:"limit,omitempty" validate:"min=0,max=50"`
}

type JournalConfig struct {
	// Enabled switches decision journaling on.
	Enabled bool `yaml:"enabled"`

	// Dir is the journal directory. Supports ~ expansion.
	Dir string `yaml:"dir,omitempty"`
}

type ServerConfig struct {
	// ListenAddr is the HTTP bind address for serve mode.
	ListenAddr string `yaml:"listen_addr"`
}

type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`

	// Dir enables file logging. Supports ~ expansion.
	Dir string `yaml:"dir,omitempty"`

	// JSON switches stderr output to JSON.
	JSON bool `yaml:"json"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() TriadConfig {
	third := 1.0 / 3.0
	return TriadConfig{
		Consensus: ConsensusConfig{
			Threshold: 0.85,
			MaxRounds: 3,
			Weights: map[string]float64{
				"pathos": third,
				"logos":  third,
				"ethos":  third,
			},
			AgentTimeoutSeconds: 120,
		},
		Agents: AgentsConfig{
			Pathos: AgentConfig{Model: "llama3.1:8b"},
			Logos:  AgentConfig{Model: "qwen2.5:14b"},
			Ethos:  AgentConfig{Model: "llama3.1:8b"},
		},
		LLM: LLMConfig{
			Backend: "ollama",
			BaseURL: "http://localhost:11434",
		},
		Knowledge: KnowledgeConfig{
			Enabled:     false,
			WeaviateURL: "http://localhost:8080",
			ClassName:   "Document",
			Limit:       5,
		},
		Journal: JournalConfig{
			Enabled: true,
			Dir:     "~/.triad/journal",
		},
		Server: ServerConfig{
			ListenAddr: ":8090",
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "~/.triad/logs",
		},
	}
}

var validate = validator.New()

// Validate checks structural constraints plus the weight-sum rule the tag
// syntax cannot express.
func (c *TriadConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sum := 0.0
	for _, role := range []string{"pathos", "logos", "ethos"} {
		w, ok := c.Consensus.Weights[role]
		if !ok {
			return fmt.Errorf("invalid config: missing consensus weight for %q", role)
		}
		if w < 0 {
			return fmt.Errorf("invalid config: negative consensus weight for %q", role)
		}
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("invalid config: consensus weights must sum to 1, got %v", sum)
	}

	if c.Knowledge.Enabled && c.Knowledge.WeaviateURL == "" {
		return fmt.Errorf("invalid config: knowledge.weaviate_url required when knowledge is enabled")
	}
	if c.Journal.Enabled && c.Journal.Dir == "" {
		return fmt.Errorf("invalid config: journal.dir required when journal is enabled")
	}
	return nil
}
