// Package metrics provides Prometheus metrics for the inventory engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesCompiledTotal tracks compiled filter queries by outcome
	QueriesCompiledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "filters",
			Name:      "queries_compiled_total",
			Help:      "Total number of filter compilations by outcome",
		},
		[]string{"mode", "outcome"},
	)

	// MutationsTotal tracks sanitized mutations by operation and outcome
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "sanitize",
			Name:      "mutations_total",
			Help:      "Total number of sanitized mutations by operation and outcome",
		},
		[]string{"operation", "entity_type", "outcome"},
	)

	// MutationDuration tracks end-to-end sanitize and commit duration
	MutationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "sanitize",
			Name:      "mutation_duration_seconds",
			Help:      "Duration of sanitize and commit by operation",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// GraphQueryDuration tracks graph transport query latency
	GraphQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "graph",
			Name:      "query_duration_seconds",
			Help:      "Duration of graph queries in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	// DuplicatesDetected tracks create requests rejected as duplicates
	DuplicatesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "sanitize",
			Name:      "duplicates_detected_total",
			Help:      "Total number of create requests flagged as possible duplicates",
		},
		[]string{"entity_type"},
	)

	// ChoiceSetLoads tracks lazily loaded pick lists
	ChoiceSetLoads = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "schema",
			Name:      "choice_set_loads_total",
			Help:      "Total number of choice set loads from the graph",
		},
	)

	// EventsPublished tracks lifecycle events published to Kafka
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of lifecycle events published by type and outcome",
		},
		[]string{"event_type", "outcome"},
	)
)
