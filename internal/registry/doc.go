// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

// Package registry holds the set of aircraft currently in range.
//
// The registry is copy-on-write. Merge and Prune build a new immutable state
// and publish it with a single atomic pointer swap; Snapshot and Lookup read
// whatever state is currently published and never block on a writer. Writers
// are serialized by a mutex, so the expected topology is one writer (the
// polling orchestrator) and any number of readers (display loops, the HTTP
// API).
//
// Identity and lifecycle:
//
//	first observation of icao  -> new TrackedAircraft, new generation, NewAircraft event
//	later observation          -> fields overlaid, trail appended, Updated event
//	now - lastSeen > timeout   -> removed by Prune, Expired event
//	re-observed after removal  -> brand new generation, NewAircraft again
//
// Eviction is exclusive: an aircraft last seen exactly timeout ago is kept.
package registry
