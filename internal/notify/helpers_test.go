// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package notify

import (
	"sync"
	"time"

	"github.com/tomtom215/piplane/internal/models"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newAircraft(icao, callsign string, firstSeen, lastSeen time.Time) models.TrackedAircraft {
	a := models.TrackedAircraft{
		ICAO:       icao,
		Callsign:   callsign,
		FirstSeen:  firstSeen,
		LastSeen:   lastSeen,
		Generation: 1,
		Latest:     models.AircraftSnapshot{ICAO: icao, ObservedAt: lastSeen},
	}
	if callsign != "" {
		a.Latest.Callsign = models.Ptr(callsign)
	}
	return a
}

func withFlight(a models.TrackedAircraft, alt, speed float64) models.TrackedAircraft {
	a.Latest.Altitude = models.Ptr(alt)
	a.Latest.GroundSpeed = models.Ptr(speed)
	return a
}

// fakeTracker is a Tracker and SnapshotSource over a fixed set.
type fakeTracker struct {
	mu       sync.Mutex
	aircraft map[string]models.TrackedAircraft
}

func newFakeTracker(list ...models.TrackedAircraft) *fakeTracker {
	f := &fakeTracker{aircraft: make(map[string]models.TrackedAircraft)}
	for _, a := range list {
		f.aircraft[a.ICAO] = a
	}
	return f
}

func (f *fakeTracker) Lookup(icao string) (models.TrackedAircraft, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.aircraft[icao]
	return a, ok
}

func (f *fakeTracker) Snapshot() []models.TrackedAircraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.TrackedAircraft, 0, len(f.aircraft))
	for _, a := range f.aircraft {
		out = append(out, a)
	}
	return out
}

func (f *fakeTracker) remove(icao string) {
	f.mu.Lock()
	delete(f.aircraft, icao)
	f.mu.Unlock()
}
