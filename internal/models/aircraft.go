// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package models

import (
	"time"
)

// AircraftSnapshot is one decoder observation of a single aircraft.
//
// Every field except ICAO and ObservedAt is optional because the decoder
// reports whatever it managed to demodulate in that cycle. A nil pointer means
// "not reported", which is different from a zero value (an aircraft on the
// ground legitimately reports altitude 0).
//
// Snapshots are treated as immutable once produced by an ingestion adapter.
type AircraftSnapshot struct {
	ICAO        string    `json:"icao"`
	Callsign    *string   `json:"callsign,omitempty"`
	Altitude    *float64  `json:"altitude,omitempty"`
	GroundSpeed *float64  `json:"ground_speed,omitempty"`
	Heading     *float64  `json:"heading,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Squawk      *string   `json:"squawk,omitempty"`
	Category    *string   `json:"category,omitempty"`
	OnGround    bool      `json:"on_ground,omitempty"`
	ObservedAt  time.Time `json:"observed_at"`
}

// HasPosition reports whether both coordinates are present.
func (s *AircraftSnapshot) HasPosition() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// Clone returns a deep copy that shares no pointers with s.
func (s *AircraftSnapshot) Clone() AircraftSnapshot {
	out := *s
	out.Callsign = clonePtr(s.Callsign)
	out.Altitude = clonePtr(s.Altitude)
	out.GroundSpeed = clonePtr(s.GroundSpeed)
	out.Heading = clonePtr(s.Heading)
	out.Latitude = clonePtr(s.Latitude)
	out.Longitude = clonePtr(s.Longitude)
	out.Squawk = clonePtr(s.Squawk)
	out.Category = clonePtr(s.Category)
	return out
}

// Overlay returns prev updated with every field that s reports.
// A field missing from s never erases a value already known in prev.
func (s *AircraftSnapshot) Overlay(prev *AircraftSnapshot) AircraftSnapshot {
	out := prev.Clone()
	out.ICAO = s.ICAO
	out.ObservedAt = s.ObservedAt
	out.OnGround = s.OnGround
	if s.Callsign != nil && *s.Callsign != "" {
		out.Callsign = clonePtr(s.Callsign)
	}
	if s.Altitude != nil {
		out.Altitude = clonePtr(s.Altitude)
	}
	if s.GroundSpeed != nil {
		out.GroundSpeed = clonePtr(s.GroundSpeed)
	}
	if s.Heading != nil {
		out.Heading = clonePtr(s.Heading)
	}
	if s.HasPosition() {
		out.Latitude = clonePtr(s.Latitude)
		out.Longitude = clonePtr(s.Longitude)
	}
	if s.Squawk != nil {
		out.Squawk = clonePtr(s.Squawk)
	}
	if s.Category != nil {
		out.Category = clonePtr(s.Category)
	}
	return out
}

// Position is one point of a tracked aircraft's recent trail.
type Position struct {
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	At        time.Time `json:"at"`
}

// TrackedAircraft is the registry's view of one aircraft within the tracking
// window. Values handed out by the registry are copies; mutating them has no
// effect on the registry.
//
// Generation identifies the tracking lifetime. An aircraft evicted and later
// re-observed gets a new generation and is alerted on again.
type TrackedAircraft struct {
	ICAO       string           `json:"icao"`
	Callsign   string           `json:"callsign,omitempty"`
	FirstSeen  time.Time        `json:"first_seen"`
	LastSeen   time.Time        `json:"last_seen"`
	Latest     AircraftSnapshot `json:"latest"`
	Positions  []Position       `json:"positions"`
	IsNew      bool             `json:"is_new"`
	Alerted    bool             `json:"alerted"`
	Generation uint64           `json:"generation"`
}

// Clone returns a deep copy of the aircraft.
func (a *TrackedAircraft) Clone() TrackedAircraft {
	out := *a
	out.Latest = a.Latest.Clone()
	if a.Positions != nil {
		out.Positions = make([]Position, len(a.Positions))
		copy(out.Positions, a.Positions)
	}
	return out
}

// DisplayName returns the callsign, or the hex identity when no callsign has
// been received yet.
func (a *TrackedAircraft) DisplayName() string {
	if a.Callsign != "" {
		return a.Callsign
	}
	return a.ICAO
}

// TrackedFor is the span between first and last observation.
func (a *TrackedAircraft) TrackedFor() time.Duration {
	return a.LastSeen.Sub(a.FirstSeen)
}

// LastPosition returns the most recent trail point, if any.
func (a *TrackedAircraft) LastPosition() (Position, bool) {
	if len(a.Positions) == 0 {
		return Position{}, false
	}
	return a.Positions[len(a.Positions)-1], true
}

// Ptr returns a pointer to v. Handy for building snapshots in adapters and tests.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
