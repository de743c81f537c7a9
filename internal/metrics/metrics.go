// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion Metrics
	IngestCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "piplane_ingest_cycle_duration_seconds",
			Help:    "Duration of one fetch + merge + dispatch cycle",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
	)

	IngestFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piplane_ingest_failures_total",
			Help: "Total number of skipped ingestion cycles",
		},
		[]string{"reason"}, // "timeout", "unavailable", "malformed", "circuit_open", "other"
	)

	IngestRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "piplane_ingest_records_total",
			Help: "Total number of aircraft records received from the decoder",
		},
	)

	// Registry Metrics
	AircraftTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "piplane_aircraft_tracked",
			Help: "Current number of aircraft in the registry",
		},
	)

	AircraftTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piplane_aircraft_transitions_total",
			Help: "Total number of registry transitions by kind",
		},
		[]string{"kind"}, // "new", "updated", "expired"
	)

	RecordsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "piplane_records_dropped_total",
			Help: "Total number of decoder records dropped for missing identity",
		},
	)

	// Alert Engine Metrics
	NotifierDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piplane_notifier_dispatches_total",
			Help: "Total number of notifier invocations by outcome",
		},
		[]string{"notifier", "kind", "result"}, // result: "success", "failure", "timeout", "dropped"
	)

	NotifierDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "piplane_notifier_duration_seconds",
			Help:    "Duration of notifier handler calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"notifier"},
	)

	NotifierQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "piplane_notifier_queue_depth",
			Help: "Events waiting in each notifier queue",
		},
		[]string{"notifier"},
	)

	AlertsFired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "piplane_alerts_fired_total",
			Help: "Total number of NewAircraft alerts fired",
		},
	)

	// Enrichment Metrics
	EnrichmentLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piplane_enrichment_lookups_total",
			Help: "Total number of aircraft metadata lookups",
		},
		[]string{"result"}, // "found", "cache_hit", "not_found", "error", "rate_limited", "skipped"
	)

	// HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piplane_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "piplane_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"method", "route"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "piplane_websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "piplane_websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "piplane_websocket_messages_dropped_total",
			Help: "Total number of broadcasts dropped because the hub was saturated",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "piplane_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piplane_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piplane_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piplane_events_published_total",
			Help: "Total number of aircraft events published to the message bus",
		},
		[]string{"topic", "result"},
	)
)

// RecordIngestCycle records the outcome of one polling cycle.
func RecordIngestCycle(duration time.Duration, records int, failureReason string) {
	IngestCycleDuration.Observe(duration.Seconds())
	if failureReason != "" {
		IngestFailures.WithLabelValues(failureReason).Inc()
		return
	}
	IngestRecords.Add(float64(records))
}

// RecordTransitions updates registry metrics after a merge or prune.
func RecordTransitions(tracked, newCount, updatedCount, expiredCount int) {
	AircraftTracked.Set(float64(tracked))
	if newCount > 0 {
		AircraftTransitions.WithLabelValues("new").Add(float64(newCount))
	}
	if updatedCount > 0 {
		AircraftTransitions.WithLabelValues("updated").Add(float64(updatedCount))
	}
	if expiredCount > 0 {
		AircraftTransitions.WithLabelValues("expired").Add(float64(expiredCount))
	}
}

// RecordNotifierDispatch records one notifier invocation.
func RecordNotifierDispatch(notifier, kind, result string, duration time.Duration) {
	NotifierDispatches.WithLabelValues(notifier, kind, result).Inc()
	if duration > 0 {
		NotifierDuration.WithLabelValues(notifier).Observe(duration.Seconds())
	}
}

// RecordEnrichmentLookup records a metadata lookup result.
func RecordEnrichmentLookup(result string) {
	EnrichmentLookups.WithLabelValues(result).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCircuitBreakerTransition records a breaker state change.
func RecordCircuitBreakerTransition(name, from, to string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordEventPublished records a message bus publish.
func RecordEventPublished(topic string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	EventsPublished.WithLabelValues(topic, result).Inc()
}
