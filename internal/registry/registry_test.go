// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package registry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/piplane/internal/models"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return epoch.Add(time.Duration(sec) * time.Second)
}

func snap(icao string, sec int) models.AircraftSnapshot {
	return models.AircraftSnapshot{ICAO: icao, ObservedAt: at(sec)}
}

func withPos(s models.AircraftSnapshot, lat, lon float64) models.AircraftSnapshot {
	s.Latitude = models.Ptr(lat)
	s.Longitude = models.Ptr(lon)
	return s
}

func kinds(events []models.TransitionEvent) []models.TransitionKind {
	out := make([]models.TransitionKind, len(events))
	for i := range events {
		out[i] = events[i].Kind
	}
	return out
}

func TestMerge_FirstObservationIsNew(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	s := snap("A1B2C3", 0)
	s.Callsign = models.Ptr("UAL123")

	events := r.Merge([]models.AircraftSnapshot{s}, at(0))

	if len(events) != 1 || events[0].Kind != models.TransitionNew {
		t.Fatalf("expected one NewAircraft event, got %v", kinds(events))
	}
	a, ok := r.Lookup("A1B2C3")
	if !ok {
		t.Fatal("expected aircraft to be tracked")
	}
	if !a.IsNew {
		t.Error("expected isNew=true after first observation")
	}
	if a.Callsign != "UAL123" {
		t.Errorf("expected callsign UAL123, got %q", a.Callsign)
	}
	if !a.FirstSeen.Equal(at(0)) || !a.LastSeen.Equal(at(0)) {
		t.Errorf("expected firstSeen=lastSeen=observedAt, got %v/%v", a.FirstSeen, a.LastSeen)
	}
	if a.Generation == 0 {
		t.Error("expected a non-zero identity generation")
	}
}

func TestMerge_UpdateKeepsKnownFields(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	first := snap("A1B2C3", 0)
	first.Callsign = models.Ptr("UAL123")
	r.Merge([]models.AircraftSnapshot{first}, at(0))

	second := snap("A1B2C3", 5)
	second.Altitude = models.Ptr(35000.0)
	events := r.Merge([]models.AircraftSnapshot{second}, at(5))

	if len(events) != 1 || events[0].Kind != models.TransitionUpdated {
		t.Fatalf("expected one Updated event, got %v", kinds(events))
	}
	a, _ := r.Lookup("A1B2C3")
	if a.Callsign != "UAL123" {
		t.Errorf("callsign overwritten by absence: %q", a.Callsign)
	}
	if !a.LastSeen.Equal(at(5)) {
		t.Errorf("expected lastSeen=5s, got %v", a.LastSeen)
	}
	if a.Latest.Altitude == nil || *a.Latest.Altitude != 35000 {
		t.Errorf("expected altitude 35000, got %v", a.Latest.Altitude)
	}
	if a.IsNew {
		t.Error("expected isNew cleared on later cycle")
	}
}

func TestPrune_EvictsAndReentryIsNew(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	r.Merge([]models.AircraftSnapshot{snap("A1B2C3", 0)}, at(0))
	r.Merge([]models.AircraftSnapshot{snap("A1B2C3", 5)}, at(5))
	firstGen := func() uint64 { a, _ := r.Lookup("A1B2C3"); return a.Generation }()

	expired := r.Prune(at(310), 300*time.Second)
	if len(expired) != 1 {
		t.Fatalf("expected 1 expired event, got %d", len(expired))
	}
	if expired[0].Kind != models.TransitionExpired || expired[0].ICAO != "A1B2C3" || !expired[0].LastSeen.Equal(at(5)) {
		t.Errorf("unexpected expired event %+v", expired[0])
	}
	if _, ok := r.Lookup("A1B2C3"); ok {
		t.Fatal("expired aircraft still visible")
	}

	events := r.Merge([]models.AircraftSnapshot{snap("A1B2C3", 320)}, at(320))
	if len(events) != 1 || events[0].Kind != models.TransitionNew {
		t.Fatalf("re-observation after eviction must be new, got %v", kinds(events))
	}
	if events[0].Aircraft.Generation == firstGen {
		t.Error("expected a fresh identity generation after eviction")
	}
}

func TestPrune_BoundaryIsExclusive(t *testing.T) {
	t.Parallel()

	timeout := 300 * time.Second
	tests := []struct {
		name    string
		age     time.Duration
		evicted bool
	}{
		{"well inside window", 10 * time.Second, false},
		{"exactly at timeout", timeout, false},
		{"one nanosecond past", timeout + time.Nanosecond, true},
		{"one second past", timeout + time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := New(Config{})
			r.Merge([]models.AircraftSnapshot{snap("ABCDEF", 0)}, at(0))

			events := r.Prune(at(0).Add(tt.age), timeout)
			if got := len(events) == 1; got != tt.evicted {
				t.Errorf("evicted=%v, want %v", got, tt.evicted)
			}
			if _, ok := r.Lookup("ABCDEF"); ok == tt.evicted {
				t.Errorf("lookup visibility=%v after prune, want %v", ok, !tt.evicted)
			}
		})
	}
}

func TestMerge_DropsRecordsWithoutICAO(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	events := r.Merge([]models.AircraftSnapshot{
		snap("", 0),
		snap("   ", 0),
		snap("abc123", 0),
	}, at(0))

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ICAO != "ABC123" {
		t.Errorf("expected normalized icao ABC123, got %q", events[0].ICAO)
	}
	if got := r.Stats().DroppedRecords; got != 2 {
		t.Errorf("expected 2 dropped records, got %d", got)
	}
}

func TestMerge_OutOfOrderObservationDiscarded(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	r.Merge([]models.AircraftSnapshot{withPos(snap("A1", 10), 1, 1)}, at(10))

	events := r.Merge([]models.AircraftSnapshot{withPos(snap("A1", 4), 9, 9)}, at(11))
	if len(events) != 0 {
		t.Errorf("expected no events for stale observation, got %v", kinds(events))
	}

	a, _ := r.Lookup("A1")
	if !a.LastSeen.Equal(at(10)) {
		t.Errorf("lastSeen moved backwards to %v", a.LastSeen)
	}
	if len(a.Positions) != 1 || a.Positions[0].Latitude != 1 {
		t.Errorf("stale position applied: %+v", a.Positions)
	}
	if got := r.Stats().DiscardedUpdates; got != 1 {
		t.Errorf("expected 1 discarded update, got %d", got)
	}
}

func TestMerge_DuplicateICAOInBatch(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	late := withPos(snap("A1", 3), 2, 2)
	early := withPos(snap("A1", 1), 1, 1)
	early.Callsign = models.Ptr("EZY1")

	events := r.Merge([]models.AircraftSnapshot{late, early}, at(3))

	if len(events) != 1 || events[0].Kind != models.TransitionNew {
		t.Fatalf("expected a single NewAircraft event, got %v", kinds(events))
	}
	if r.Len() != 1 {
		t.Fatalf("expected one entry, got %d", r.Len())
	}
	a, _ := r.Lookup("A1")
	if !a.LastSeen.Equal(at(3)) || !a.FirstSeen.Equal(at(1)) {
		t.Errorf("expected first=1s last=3s, got %v %v", a.FirstSeen, a.LastSeen)
	}
	if len(a.Positions) != 2 || a.Positions[1].Latitude != 2 {
		t.Errorf("expected ascending trail, got %+v", a.Positions)
	}
	if a.Callsign != "EZY1" {
		t.Errorf("expected callsign from earlier sighting kept, got %q", a.Callsign)
	}
}

func TestMerge_PositionHistoryCapped(t *testing.T) {
	t.Parallel()

	r := New(Config{PositionHistory: 3})
	for i := 0; i < 6; i++ {
		r.Merge([]models.AircraftSnapshot{withPos(snap("A1", i), float64(i), 0)}, at(i))
	}

	a, _ := r.Lookup("A1")
	if len(a.Positions) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(a.Positions))
	}
	for i, p := range a.Positions {
		if p.Latitude != float64(i+3) {
			t.Errorf("position %d: expected lat %d, got %v", i, i+3, p.Latitude)
		}
		if i > 0 && p.At.Before(a.Positions[i-1].At) {
			t.Error("trail not time-ordered")
		}
	}
}

func TestSnapshot_OrderAndIndependence(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	r.Merge([]models.AircraftSnapshot{
		snap("CCCCCC", 1),
		snap("BBBBBB", 5),
		snap("AAAAAA", 5),
	}, at(5))

	got := r.Snapshot()
	want := []string{"AAAAAA", "BBBBBB", "CCCCCC"}
	if len(got) != len(want) {
		t.Fatalf("expected %d aircraft, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ICAO != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i].ICAO)
		}
	}

	got[0].Callsign = "MUTATED"
	got[0].Positions = append(got[0].Positions, models.Position{})
	again, _ := r.Lookup("AAAAAA")
	if again.Callsign == "MUTATED" || len(again.Positions) != 0 {
		t.Error("snapshot exposed internal state")
	}
}

func TestMarkAlerted(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	events := r.Merge([]models.AircraftSnapshot{snap("A1", 0)}, at(0))
	gen := events[0].Aircraft.Generation

	if r.MarkAlerted("A1", gen+1) {
		t.Error("stale generation must not be marked")
	}
	if !r.MarkAlerted("a1", gen) {
		t.Fatal("expected first MarkAlerted to succeed")
	}
	if r.MarkAlerted("A1", gen) {
		t.Error("second MarkAlerted must be a no-op")
	}
	alerted, tracked := r.Alerted("A1", gen)
	if !alerted || !tracked {
		t.Errorf("Alerted() = %v,%v", alerted, tracked)
	}
	a, _ := r.Lookup("A1")
	if a.IsNew {
		t.Error("alert delivery should clear isNew")
	}
}

func TestRegistry_UniquenessAndMonotonicity(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	last := map[string]time.Time{}
	for cycle := 0; cycle < 20; cycle++ {
		var batch []models.AircraftSnapshot
		for i := 0; i < 5; i++ {
			// Every third record is deliberately stale.
			sec := cycle
			if (cycle+i)%3 == 0 && cycle > 0 {
				sec = cycle - 1
			}
			batch = append(batch, snap(fmt.Sprintf("AC%04d", (cycle+i)%7), sec))
		}
		r.Merge(batch, at(cycle))

		seen := map[string]bool{}
		for _, a := range r.Snapshot() {
			if seen[a.ICAO] {
				t.Fatalf("cycle %d: duplicate icao %s", cycle, a.ICAO)
			}
			seen[a.ICAO] = true
			if a.LastSeen.Before(a.FirstSeen) {
				t.Fatalf("cycle %d: %s lastSeen before firstSeen", cycle, a.ICAO)
			}
			if prev, ok := last[a.ICAO]; ok && a.LastSeen.Before(prev) {
				t.Fatalf("cycle %d: %s lastSeen went backwards", cycle, a.ICAO)
			}
			last[a.ICAO] = a.LastSeen
		}
	}
}

func TestSnapshot_ConcurrentWithMerge(t *testing.T) {
	t.Parallel()

	r := New(Config{PositionHistory: 10})
	const cycles = 200

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				for _, a := range r.Snapshot() {
					p, ok := a.LastPosition()
					if !ok {
						continue
					}
					// Every merge below carries a position, so a torn read
					// shows up as a trail lagging lastSeen.
					if !p.At.Equal(a.LastSeen) {
						t.Errorf("torn read: lastSeen %v, last point %v", a.LastSeen, p.At)
						return
					}
					for j := 1; j < len(a.Positions); j++ {
						if a.Positions[j].At.Before(a.Positions[j-1].At) {
							t.Errorf("trail out of order")
							return
						}
					}
				}
			}
		}()
	}

	for c := 0; c < cycles; c++ {
		batch := make([]models.AircraftSnapshot, 0, 20)
		for i := 0; i < 20; i++ {
			batch = append(batch, withPos(snap(fmt.Sprintf("C%05d", i), c), float64(c), float64(i)))
		}
		r.Merge(batch, at(c))
		if c%50 == 49 {
			r.Prune(at(c), time.Hour)
		}
	}
	close(stop)
	wg.Wait()

	if r.Len() != 20 {
		t.Errorf("expected 20 tracked aircraft, got %d", r.Len())
	}
}
