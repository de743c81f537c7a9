// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

// Package ingest turns decoder output into AircraftSnapshot batches.
//
// Two adapters read the dump1090-fa / readsb aircraft.json document:
//
//   - FileAdapter reads it from disk (default /var/run/dump1090-fa/aircraft.json)
//   - HTTPAdapter fetches it from the decoder's web server, behind a circuit breaker
//
// Both return ErrSourceUnavailable when the document cannot be obtained and
// ErrMalformedPayload when it cannot be parsed. The orchestrator treats either
// as a skipped cycle.
//
// Wire format (fields PiPlane reads):
//
//	{
//	  "now": 1767268800.1,
//	  "aircraft": [
//	    {"hex": "a1b2c3", "flight": "UAL123  ", "alt_baro": 35000, "gs": 450.2,
//	     "track": 271.4, "lat": 51.47, "lon": -0.45, "seen": 0.4, "squawk": "1200"},
//	    {"hex": "~2a04f1", "alt_baro": "ground", "seen": 12.9}
//	  ]
//	}
//
// observedAt is the fetch time minus "seen".
package ingest
