// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

// Package metrics provides Prometheus instrumentation for Melographus:
// DuckDB query performance, API endpoint latency and throughput, and
// session recording counters.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Session recording metrics
	SessionsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_recorded_total",
			Help: "Total number of listening sessions recorded",
		},
	)

	SessionsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_rejected_total",
			Help: "Total number of sessions rejected for non-positive duration",
		},
	)

	// Aggregation metrics
	AggregationFaults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregation_faults_total",
			Help: "Total number of aggregation faults collapsed into empty results",
		},
		[]string{"operation"},
	)

	ExportsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "csv_exports_generated_total",
			Help: "Total number of CSV exports generated",
		},
	)

	// Retention metrics
	RetentionEventsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retention_events_removed_total",
			Help: "Total number of events removed by retention sweeps",
		},
	)
)

// RecordAPIRequest records count and duration for one finished request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the active-request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// TimeDBQuery starts a timer for a database operation and returns a
// function that records the observation when called:
//
//	defer metrics.TimeDBQuery("artist_stats")()
func TimeDBQuery(operation string) func() {
	start := time.Now()
	return func() {
		DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
