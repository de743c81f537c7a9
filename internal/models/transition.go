// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package models

import "time"

// TransitionKind tags a TransitionEvent.
type TransitionKind int

const (
	// TransitionNew marks the first observation of an identity generation.
	TransitionNew TransitionKind = iota + 1
	// TransitionUpdated marks a subsequent observation.
	TransitionUpdated
	// TransitionExpired marks eviction by a prune pass.
	TransitionExpired
)

// String returns the lowercase event name used in logs and wire payloads.
func (k TransitionKind) String() string {
	switch k {
	case TransitionNew:
		return "new"
	case TransitionUpdated:
		return "updated"
	case TransitionExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k TransitionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// TransitionEvent is produced by the registry on every merge or prune and
// consumed once by the alert engine.
//
// For expired events ICAO and LastSeen carry the identity and final sighting;
// Aircraft holds the last known state so removal handlers can still render it.
type TransitionEvent struct {
	Kind     TransitionKind  `json:"kind"`
	ICAO     string          `json:"icao"`
	LastSeen time.Time       `json:"last_seen"`
	Aircraft TrackedAircraft `json:"aircraft"`
}

// NewAircraftEvent builds a TransitionNew event.
func NewAircraftEvent(a *TrackedAircraft) TransitionEvent {
	return TransitionEvent{Kind: TransitionNew, ICAO: a.ICAO, LastSeen: a.LastSeen, Aircraft: a.Clone()}
}

// UpdatedEvent builds a TransitionUpdated event.
func UpdatedEvent(a *TrackedAircraft) TransitionEvent {
	return TransitionEvent{Kind: TransitionUpdated, ICAO: a.ICAO, LastSeen: a.LastSeen, Aircraft: a.Clone()}
}

// ExpiredEvent builds a TransitionExpired event.
func ExpiredEvent(a *TrackedAircraft) TransitionEvent {
	return TransitionEvent{Kind: TransitionExpired, ICAO: a.ICAO, LastSeen: a.LastSeen, Aircraft: a.Clone()}
}
