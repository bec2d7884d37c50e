// Package metrics holds the Prometheus collectors for conversation turns,
// model calls and index searches.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assist_turns_total",
			Help: "Total number of conversation turns by intent and outcome",
		},
		[]string{"intent", "outcome"},
	)

	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assist_llm_calls_total",
			Help: "Total number of model calls by prompt stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	ModelOutputTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assist_model_output_total",
			Help: "Parsed model replies by prompt stage and parse result",
		},
		[]string{"stage", "kind"},
	)

	IndexSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assist_index_searches_total",
			Help: "Total number of index searches by outcome",
		},
		[]string{"outcome"},
	)

	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assist_turn_duration_seconds",
			Help:    "Duration of a conversation turn in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assist_active_sessions",
			Help: "Number of live conversation sessions",
		},
	)
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeEmpty    = "empty"
	OutcomeNotFound = "not_found"
	OutcomeRejected = "rejected"
)
