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

// AircraftStore is the read side of the registry.
type AircraftStore interface {
	Snapshot() []models.TrackedAircraft
	Lookup(icao string) (models.TrackedAircraft, bool)
	Stats() registry.Stats
}

// PollerStatus reports orchestrator progress.
type PollerStatus interface {
	Stats() orchestrator.Stats
}

// NotifierStatus reports per-notifier delivery counters.
type NotifierStatus interface {
	Stats() []alert.NotifierStats
}

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	GetClientCount() int
}

// Options wires a Handler. Store is required; the rest may be nil and the
// matching fields are omitted from responses.
type Options struct {
	Store     AircraftStore
	Poller    PollerStatus
	Notifiers NotifierStatus
	Clients   ClientCounter
	WebSocket http.Handler

	// StaleAfter marks ingest unhealthy when no poll has succeeded for this
	// long. Zero disables the check.
	StaleAfter time.Duration
}

// Handler serves the API endpoints.
type Handler struct {
	store      AircraftStore
	poller     PollerStatus
	notifiers  NotifierStatus
	clients    ClientCounter
	websocket  http.Handler
	staleAfter time.Duration
	startTime  time.Time
	now        func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(opts Options) *Handler {
	return &Handler{
		store:      opts.Store,
		poller:     opts.Poller,
		notifiers:  opts.Notifiers,
		clients:    opts.Clients,
		websocket:  opts.WebSocket,
		staleAfter: opts.StaleAfter,
		startTime:  time.Now(),
		now:        time.Now,
	}
}

// WebSocket upgrades the connection through the configured hub handler.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.websocket == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "WebSocket streaming is disabled", nil)
		return
	}
	h.websocket.ServeHTTP(w, r)
}
