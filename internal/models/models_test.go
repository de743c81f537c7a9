// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSnapshotOverlay_KeepsKnownFields(t *testing.T) {
	t.Parallel()

	prev := AircraftSnapshot{
		ICAO:       "A1B2C3",
		Callsign:   Ptr("UAL123"),
		Altitude:   Ptr(30000.0),
		Latitude:   Ptr(51.5),
		Longitude:  Ptr(-0.1),
		ObservedAt: testTime,
	}
	next := AircraftSnapshot{
		ICAO:       "A1B2C3",
		Altitude:   Ptr(35000.0),
		ObservedAt: testTime.Add(5 * time.Second),
	}

	merged := next.Overlay(&prev)

	if merged.Callsign == nil || *merged.Callsign != "UAL123" {
		t.Errorf("callsign overwritten by absence: %v", merged.Callsign)
	}
	if merged.Altitude == nil || *merged.Altitude != 35000 {
		t.Errorf("expected altitude 35000, got %v", merged.Altitude)
	}
	if !merged.HasPosition() {
		t.Error("position lost on overlay")
	}
	if !merged.ObservedAt.Equal(next.ObservedAt) {
		t.Errorf("expected observedAt %v, got %v", next.ObservedAt, merged.ObservedAt)
	}
}

func TestSnapshotOverlay_EmptyCallsignIgnored(t *testing.T) {
	t.Parallel()

	prev := AircraftSnapshot{ICAO: "A1B2C3", Callsign: Ptr("BAW1")}
	next := AircraftSnapshot{ICAO: "A1B2C3", Callsign: Ptr("")}

	merged := next.Overlay(&prev)
	if *merged.Callsign != "BAW1" {
		t.Errorf("expected BAW1, got %q", *merged.Callsign)
	}
}

func TestSnapshotOverlay_PartialCoordinatesIgnored(t *testing.T) {
	t.Parallel()

	prev := AircraftSnapshot{ICAO: "A1", Latitude: Ptr(1.0), Longitude: Ptr(2.0)}
	next := AircraftSnapshot{ICAO: "A1", Latitude: Ptr(9.0)}

	merged := next.Overlay(&prev)
	if *merged.Latitude != 1.0 || *merged.Longitude != 2.0 {
		t.Errorf("half a coordinate pair must not be applied, got %v,%v", *merged.Latitude, *merged.Longitude)
	}
}

func TestTrackedAircraftClone_Independent(t *testing.T) {
	t.Parallel()

	orig := TrackedAircraft{
		ICAO:      "ABCDEF",
		Latest:    AircraftSnapshot{ICAO: "ABCDEF", Altitude: Ptr(1000.0)},
		Positions: []Position{{Latitude: 1, Longitude: 2, At: testTime}},
	}
	cp := orig.Clone()
	cp.Positions[0].Latitude = 99
	*cp.Latest.Altitude = 5

	if orig.Positions[0].Latitude != 1 {
		t.Error("clone shares position slice")
	}
	if *orig.Latest.Altitude != 1000 {
		t.Error("clone shares snapshot pointers")
	}
}

func TestTrackedAircraft_Helpers(t *testing.T) {
	t.Parallel()

	a := TrackedAircraft{ICAO: "ABCDEF", FirstSeen: testTime, LastSeen: testTime.Add(90 * time.Second)}
	if got := a.DisplayName(); got != "ABCDEF" {
		t.Errorf("DisplayName() = %q, want hex fallback", got)
	}
	a.Callsign = "DLH4AB"
	if got := a.DisplayName(); got != "DLH4AB" {
		t.Errorf("DisplayName() = %q, want callsign", got)
	}
	if got := a.TrackedFor(); got != 90*time.Second {
		t.Errorf("TrackedFor() = %v", got)
	}
	if _, ok := a.LastPosition(); ok {
		t.Error("expected no last position")
	}
}

func TestTransitionKind_JSON(t *testing.T) {
	t.Parallel()

	a := TrackedAircraft{ICAO: "A1B2C3", LastSeen: testTime}
	data, err := json.Marshal(ExpiredEvent(&a))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["kind"] != "expired" {
		t.Errorf("expected kind 'expired', got %v", decoded["kind"])
	}
	if decoded["icao"] != "A1B2C3" {
		t.Errorf("expected icao A1B2C3, got %v", decoded["icao"])
	}
}
