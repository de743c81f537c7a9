// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/piplane/internal/alert"
	"github.com/tomtom215/piplane/internal/models"
	"github.com/tomtom215/piplane/internal/orchestrator"
	"github.com/tomtom215/piplane/internal/registry"
)

// HealthStatus is the body of GET /healthz.
type HealthStatus struct {
	Status      string     `json:"status"` // "healthy" or "degraded"
	Tracked     int        `json:"tracked"`
	State       string     `json:"state,omitempty"`
	LastPollAt  *time.Time `json:"last_poll_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	UptimeSec   float64    `json:"uptime_seconds"`
	IngestStale bool       `json:"ingest_stale"`
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	Registry         registry.Stats       `json:"registry"`
	Orchestrator     *orchestrator.Stats  `json:"orchestrator,omitempty"`
	Notifiers        []alert.NotifierStats `json:"notifiers,omitempty"`
	WebSocketClients int                  `json:"websocket_clients"`
	UptimeSec        float64              `json:"uptime_seconds"`
}

// Health reports liveness. It answers 503 when ingest has been failing for
// longer than the stale threshold so an orchestrator can restart the decoder.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	health := HealthStatus{
		Status:    "healthy",
		Tracked:   h.store.Stats().Tracked,
		UptimeSec: now.Sub(h.startTime).Seconds(),
	}

	if h.poller != nil {
		stats := h.poller.Stats()
		health.State = stats.State.String()
		if !stats.LastPoll.StartedAt.IsZero() {
			at := stats.LastPoll.StartedAt
			health.LastPollAt = &at
		}
		health.LastError = stats.LastPoll.Error
		health.IngestStale = h.ingestStale(&stats, now)
	}

	status := http.StatusOK
	if health.IngestStale {
		health.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     health,
		Metadata: models.Metadata{Timestamp: now.UTC()},
	})
}

// ingestStale is true when the latest poll failed and the failure streak has
// outlived the threshold. Startup gets the same grace.
func (h *Handler) ingestStale(stats *orchestrator.Stats, now time.Time) bool {
	if h.staleAfter <= 0 {
		return false
	}
	if stats.LastPoll.StartedAt.IsZero() {
		return now.Sub(h.startTime) > h.staleAfter
	}
	if stats.ConsecutiveFailures == 0 {
		return false
	}
	return now.Sub(h.lastSuccess(stats)) > h.staleAfter
}

func (h *Handler) lastSuccess(stats *orchestrator.Stats) time.Time {
	if !stats.LastSuccess.IsZero() {
		return stats.LastSuccess
	}
	return h.startTime
}

// Stats returns counters from every component that is wired.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Registry:  h.store.Stats(),
		UptimeSec: h.now().Sub(h.startTime).Seconds(),
	}
	if h.poller != nil {
		stats := h.poller.Stats()
		resp.Orchestrator = &stats
	}
	if h.notifiers != nil {
		resp.Notifiers = h.notifiers.Stats()
	}
	if h.clients != nil {
		resp.WebSocketClients = h.clients.GetClientCount()
	}
	respondSuccess(w, resp, 1)
}
