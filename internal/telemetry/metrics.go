/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scheduling run metrics. The kind label is "activities" or "matches".
var (
	ScheduleRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_schedule_runs_total",
			Help: "Scheduling runs by kind and result (ok, validation_error, invariant_error, error).",
		},
		[]string{"kind", "result"},
	)

	ScheduleRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchday_schedule_run_duration_seconds",
			Help:    "Wall time of scheduling runs.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"kind"},
	)

	ScheduleBatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchday_schedule_batch_size",
			Help:    "Candidates submitted per scheduling run.",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 74, 150, 500},
		},
		[]string{"kind"},
	)

	CandidatesPlacedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_candidates_placed_total",
			Help: "Candidates that received a placement.",
		},
		[]string{"kind"},
	)

	MatchesRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchday_matches_rejected_total",
			Help: "Matches for which no feasible date existed within the horizon.",
		},
	)

	StagedCandidates = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "matchday_staged_candidates",
			Help: "Candidates currently waiting in staging.",
		},
		[]string{"kind"},
	)
)

// HTTP API metrics.
var (
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchday_api_request_duration_seconds",
			Help:    "API request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_api_requests_total",
			Help: "API requests served.",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchday_api_active_connections",
			Help: "API requests currently in flight.",
		},
	)
)

// Staging database metrics.
var (
	DatabaseConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchday_database_connections_active",
			Help: "Open connections in the staging database pool.",
		},
	)

	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchday_database_query_duration_seconds",
			Help:    "Duration of staging database operations.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"operation", "table"},
	)

	DatabaseErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_database_errors_total",
			Help: "Failed staging database operations.",
		},
		[]string{"operation"},
	)
)

// Event fan-out metrics.
var (
	EventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_events_dropped_total",
			Help: "Events not handed to a subscriber whose queue was full.",
		},
		[]string{"event_type"},
	)

	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_webhook_deliveries_total",
			Help: "Webhook deliveries by result (delivered, rejected, failed, dropped).",
		},
		[]string{"result"},
	)
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
