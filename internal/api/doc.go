// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

/*
Package api serves the read-only HTTP surface over the aircraft registry.

Routes:

	GET /healthz                  liveness and ingest freshness
	GET /metrics                  Prometheus exposition
	GET /api/v1/aircraft          tracked aircraft, newest sighting first
	GET /api/v1/aircraft/{icao}   one aircraft with derived fields
	GET /api/v1/stats             registry, poller and notifier counters
	GET /api/v1/ws                websocket stream of transitions

Every JSON endpoint answers with models.APIResponse. Errors carry one of the
codes NOT_FOUND, VALIDATION_ERROR, RATE_LIMIT_EXCEEDED or INTERNAL_ERROR.

The API never mutates the registry. Handlers read copies handed out by
Snapshot and Lookup, so a slow client cannot hold up a merge.
*/
package api
