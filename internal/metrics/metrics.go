// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

// Package metrics provides Prometheus instrumentation for Clavis:
// access decisions, session-cache efficiency, index client performance
// and circuit breaker state. Exposed at /metrics via promhttp.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Access decision metrics
	AccessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clavis_access_decisions_total",
			Help: "Total access decisions by privilege and outcome",
		},
		[]string{"privilege", "outcome"}, // outcome: granted, denied, error
	)

	AccessDecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clavis_access_decision_duration_seconds",
			Help:    "Duration of access-permission evaluations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"privilege"},
	)

	// Session decision cache metrics
	SessionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clavis_session_cache_hits_total",
			Help: "Decisions answered from the session cache",
		},
	)

	SessionCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clavis_session_cache_misses_total",
			Help: "Decisions that required a full evaluation",
		},
	)

	SessionCacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clavis_session_cache_invalidations_total",
			Help: "Session cache buckets cleared after a record change",
		},
	)

	// Index client metrics
	IndexQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clavis_index_queries_total",
			Help: "Total index queries by operation and status",
		},
		[]string{"operation", "status"}, // operation: search, first_doc, hit_count
	)

	IndexQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clavis_index_query_duration_seconds",
			Help:    "Duration of index queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Catalog store metrics
	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clavis_catalog_query_duration_seconds",
			Help:    "Duration of catalog store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CatalogQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clavis_catalog_query_errors_total",
			Help: "Total catalog store query errors",
		},
		[]string{"operation"},
	)

	// Circuit breaker metrics (index client)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clavis_circuit_breaker_state",
			Help: "Circuit breaker state: 0=closed, 1=half-open, 2=open",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clavis_circuit_breaker_requests_total",
			Help: "Circuit breaker requests by result",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clavis_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clavis_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// RecordAccessDecision records one evaluation outcome with its duration.
func RecordAccessDecision(privilege string, granted bool, duration time.Duration) {
	outcome := "denied"
	if granted {
		outcome = "granted"
	}
	AccessDecisions.WithLabelValues(privilege, outcome).Inc()
	AccessDecisionDuration.WithLabelValues(privilege).Observe(duration.Seconds())
}

// RecordAccessError records an evaluation that failed with an error.
func RecordAccessError(privilege string) {
	AccessDecisions.WithLabelValues(privilege, "error").Inc()
}

// RecordIndexQuery records one index query with its duration and result.
func RecordIndexQuery(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	IndexQueries.WithLabelValues(operation, status).Inc()
	IndexQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCatalogQuery records one catalog store query.
func RecordCatalogQuery(operation string, duration time.Duration, err error) {
	CatalogQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		CatalogQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
