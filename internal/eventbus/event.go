// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package eventbus

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/piplane/internal/enrich"
	"github.com/tomtom215/piplane/internal/models"
)

// Event types, also the last subject token.
const (
	EventNew     = "new"
	EventExpired = "expired"
)

// DefaultSubjectPrefix is prepended to every subject.
const DefaultSubjectPrefix = "piplane.aircraft"

// AircraftEvent is the message body.
type AircraftEvent struct {
	Type       string                  `json:"type"`
	ICAO       string                  `json:"icao"`
	Callsign   string                  `json:"callsign,omitempty"`
	Timestamp  time.Time               `json:"timestamp"`
	LastSeen   time.Time               `json:"last_seen"`
	Aircraft   *models.TrackedAircraft `json:"aircraft,omitempty"`
	Enrichment *enrich.AircraftInfo    `json:"enrichment,omitempty"`
}

// Subject returns the subject for an event type.
func Subject(prefix, eventType string) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return prefix + "." + eventType
}

// DecodeEvent parses a message body.
func DecodeEvent(data []byte) (*AircraftEvent, error) {
	var ev AircraftEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode aircraft event: %w", err)
	}
	return &ev, nil
}
