// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

/*
Package middleware provides HTTP middleware shared by the PiPlane API.

Key Components:

  - RequestID: X-Request-ID propagation plus a per-request correlation id
  - PrometheusMetrics: request counters and latency keyed by chi route pattern
  - AccessLog: one structured log line per request
  - Compression: gzip for clients that accept it

All middleware uses the net/http handler signature so it plugs straight into
chi:

	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)

WebSocket upgrades pass through untouched: Compression skips them and the
wrapped writers keep http.Hijacker available.
*/
package middleware
