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
	"strings"
	"time"

	"github.com/AleutianAI/AleutianTriad/cmd/triad/config"
	"github.com/AleutianAI/AleutianTriad/cmd/triad/internal/manifest"
	"github.com/AleutianAI/AleutianTriad/services/agents"
	"github.com/AleutianAI/AleutianTriad/services/consensus"
	"github.com/AleutianAI/AleutianTriad/services/gateway"
	"github.com/AleutianAI/AleutianTriad/services/knowledge"
	"github.com/AleutianAI/AleutianTriad/services/llm"
	"github.com/AleutianAI/AleutianTriad/services/privacy"
)

// roleModels returns the per-role model names, preferring a manifest when
// one was passed on the command line.
func roleModels(cfg *config.TriadConfig) (map[agents.Role]string, error) {
	models := map[agents.Role]string{
		agents.RolePathos: cfg.Agents.Pathos.Model,
		agents.RoleLogos:  cfg.Agents.Logos.Model,
		agents.RoleEthos:  cfg.Agents.Ethos.Model,
	}

	if manifestFlag == "" {
		return models, nil
	}

	m, err := manifest.LoadManifest(manifestFlag)
	if err != nil {
		return nil, err
	}
	handles, err := manifest.NewResolver(nil).Resolve(m)
	if err != nil {
		return nil, err
	}
	for _, h := range handles {
		models[agents.Role(h.Role)] = h.Model
	}
	return models, nil
}

// buildLLMClient constructs the configured model backend for one model.
func buildLLMClient(cfg *config.TriadConfig, model string) (llm.LLMClient, error) {
	switch cfg.LLM.Backend {
	case "openai":
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL: cfg.LLM.BaseURL,
			Model:   model,
		})
	default:
		return llm.NewOllamaClient(llm.OllamaConfig{
			BaseURL: cfg.LLM.BaseURL,
			Model:   model,
		})
	}
}

// buildEngine assembles the three role agents and the consensus engine.
func buildEngine(cfg *config.TriadConfig, metrics *consensus.Metrics) (*consensus.Engine, error) {
	models, err := roleModels(cfg)
	if err != nil {
		return nil, err
	}

	var roleAgents []agents.RoleAgent
	for _, role := range agents.AllRoles() {
		client, err := buildLLMClient(cfg, models[role])
		if err != nil {
			return nil, fmt.Errorf("backend for %s: %w", role, err)
		}
		agent, err := agents.NewLLMAgent(role, client, models[role])
		if err != nil {
			return nil, err
		}
		roleAgents = append(roleAgents, agent)
	}

	engineCfg := consensus.Config{
		Threshold:    cfg.Consensus.Threshold,
		MaxRounds:    cfg.Consensus.MaxRounds,
		AgentTimeout: time.Duration(cfg.Consensus.AgentTimeoutSeconds) * time.Second,
		Weights: map[agents.Role]float64{
			agents.RolePathos: cfg.Consensus.Weights["pathos"],
			agents.RoleLogos:  cfg.Consensus.Weights["logos"],
			agents.RoleEthos:  cfg.Consensus.Weights["ethos"],
		},
	}
	return consensus.NewEngine(roleAgents, engineCfg, metrics)
}

// buildRetriever returns the knowledge retriever, or a nop when retrieval
// is disabled in config or by --no-rag.
func buildRetriever(cfg *config.TriadConfig) (knowledge.Retriever, error) {
	if noRag || !cfg.Knowledge.Enabled {
		return knowledge.NopRetriever{}, nil
	}
	return knowledge.NewWeaviateRetriever(knowledge.WeaviateConfig{
		URL:          cfg.Knowledge.WeaviateURL,
		ClassName:    cfg.Knowledge.ClassName,
		DefaultLimit: cfg.Knowledge.Limit,
	})
}

// buildPatterns compiles built-in patterns per the privacy config plus any
// custom patterns.
func buildPatterns(cfg *config.TriadConfig) ([]privacy.Pattern, error) {
	pcfg := privacy.DefaultPatternConfig()
	for _, name := range cfg.Privacy.Disabled {
		switch privacy.Category(strings.ToUpper(name)) {
		case privacy.CategoryEmail:
			pcfg.RedactEmails = false
		case privacy.CategoryAPIKey, privacy.CategoryAWSKey:
			pcfg.RedactAPIKeys = false
		case privacy.CategoryJWT:
			pcfg.RedactJWTs = false
		case privacy.CategorySSN:
			pcfg.RedactSSN = false
		case privacy.CategoryCreditCard:
			pcfg.RedactCreditCards = false
		case privacy.CategoryPhone:
			pcfg.RedactPhoneNumbers = false
		case privacy.CategoryIPAddress:
			pcfg.RedactIPAddresses = false
		default:
			return nil, fmt.Errorf("unknown privacy category %q in privacy.disabled", name)
		}
	}
	patterns, err := privacy.CompilePatterns(pcfg)
	if err != nil {
		return nil, err
	}

	if len(cfg.Privacy.CustomPatterns) > 0 {
		raw := make([]privacy.Pattern, 0, len(cfg.Privacy.CustomPatterns))
		for _, cp := range cfg.Privacy.CustomPatterns {
			raw = append(raw, privacy.Pattern{
				ID:       cp.ID,
				Category: privacy.Category(cp.Category),
				Expr:     cp.Regex,
			})
		}
		custom, err := privacy.CompileCustomPatterns(raw)
		if err != nil {
			return nil, err
		}
		// Custom patterns run ahead of the built-ins.
		patterns = append(custom, patterns...)
	}
	return patterns, nil
}

// buildJournal opens the decision journal, or returns nil when disabled.
func buildJournal(cfg *config.TriadConfig) (*gateway.Journal, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	return gateway.OpenJournal(config.ExpandPath(cfg.Journal.Dir))
}

// buildPipeline wires the full query pipeline from config.
func buildPipeline(cfg *config.TriadConfig, metrics *consensus.Metrics) (*gateway.Pipeline, *gateway.Journal, error) {
	patterns, err := buildPatterns(cfg)
	if err != nil {
		return nil, nil, err
	}
	engine, err := buildEngine(cfg, metrics)
	if err != nil {
		return nil, nil, err
	}
	retriever, err := buildRetriever(cfg)
	if err != nil {
		return nil, nil, err
	}
	journal, err := buildJournal(cfg)
	if err != nil {
		return nil, nil, err
	}

	pipeline, err := gateway.NewPipeline(patterns, engine, retriever, journal, cfg.Knowledge.Limit)
	if err != nil {
		if journal != nil {
			journal.Close()
		}
		return nil, nil, err
	}
	return pipeline, journal, nil
}
