// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

/*
Package models defines the data structures shared by PiPlane components.

Key Components:

  - AircraftSnapshot: one decoder observation, optional fields as pointers
  - TrackedAircraft: the registry's per-aircraft state (first/last seen, trail)
  - TransitionEvent: new/updated/expired events produced per merge or prune
  - APIResponse: the JSON envelope used by the HTTP API

Snapshots flow from ingestion adapters into the registry; the registry hands
out TrackedAircraft copies to readers and TransitionEvents to the alert engine.
Nothing in this package holds state or performs I/O.
*/
package models
