// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package main

import (
	"net/http"
	"time"

	"github.com/tomtom215/piplane/internal/api"
	"github.com/tomtom215/piplane/internal/config"
	ws "github.com/tomtom215/piplane/internal/websocket"
)

// newHTTPServer builds the API server. The websocket handler greets each
// client with the current snapshot.
func newHTTPServer(cfg *config.Config, opts api.Options, hub *ws.Hub) *http.Server {
	if hub != nil {
		store := opts.Store
		opts.WebSocket = ws.NewHandler(hub, cfg.Server.CORSOrigins, func() interface{} {
			return store.Snapshot()
		})
		opts.Clients = hub
	}
	opts.StaleAfter = staleThreshold(&cfg.Ingest)

	mw := api.DefaultChiMiddlewareConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		mw.CORSAllowedOrigins = cfg.Server.CORSOrigins
	}
	mw.RateLimitRequests = cfg.Server.RateLimitRequests
	mw.RateLimitWindow = cfg.Server.RateLimitWindow
	mw.RateLimitDisabled = cfg.Server.RateLimitRequests == 0

	router := api.NewRouter(api.NewHandler(opts), api.NewChiMiddleware(mw))

	return &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
