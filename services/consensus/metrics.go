// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package consensus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/AleutianTriad/services/agents"
)

// Metrics instruments the deliberation loop. All methods are safe on a nil
// receiver so the engine can run uninstrumented.
type Metrics struct {
	decisions   *prometheus.CounterVec
	vetoes      prometheus.Counter
	abstentions *prometheus.CounterVec
	rounds      prometheus.Histogram
	scores      prometheus.Histogram
}

// NewMetrics registers the consensus metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triad",
			Subsystem: "consensus",
			Name:      "decisions_total",
			Help:      "Completed deliberations by outcome.",
		}, []string{"outcome"}),
		vetoes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "triad",
			Subsystem: "consensus",
			Name:      "vetoes_total",
			Help:      "Deliberations ended by an ethical veto.",
		}),
		abstentions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triad",
			Subsystem: "consensus",
			Name:      "abstentions_total",
			Help:      "Agent abstentions by role.",
		}, []string{"role"}),
		rounds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "triad",
			Subsystem: "consensus",
			Name:      "rounds_per_decision",
			Help:      "Rounds run per completed deliberation.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
		scores: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "triad",
			Subsystem: "consensus",
			Name:      "final_score",
			Help:      "Weighted score of the final round.",
			Buckets:   prometheus.LinearBuckets(0.0, 0.1, 11),
		}),
	}
}

func (m *Metrics) observeDecision(r *Result) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(r.Outcome.String()).Inc()
	m.rounds.Observe(float64(len(r.Rounds)))
	m.scores.Observe(r.Score)
}

func (m *Metrics) observeVeto() {
	if m == nil {
		return
	}
	m.vetoes.Inc()
}

func (m *Metrics) observeAbstention(role agents.Role) {
	if m == nil {
		return
	}
	m.abstentions.WithLabelValues(string(role)).Inc()
}
