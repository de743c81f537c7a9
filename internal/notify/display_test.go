// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/piplane/internal/models"
)

func TestFormatLCD(t *testing.T) {
	t.Parallel()

	base := newAircraft("A1B2C3", "UAL123", t0, t0)
	ground := newAircraft("400ABC", "", t0, t0)
	ground.Latest.OnGround = true
	ground.Latest.Altitude = models.Ptr(0.0)

	tests := []struct {
		name string
		a    models.TrackedAircraft
		want []string
	}{
		{"altitude and speed", withFlight(base, 35000, 450), []string{"UAL123 [US]     ", "35000ft 450kt   "}},
		{"altitude only", func() models.TrackedAircraft {
			a := base
			a.Latest.Altitude = models.Ptr(1200.0)
			return a
		}(), []string{"UAL123 [US]     ", "Alt: 1200ft     "}},
		{"speed only", func() models.TrackedAircraft {
			a := base
			a.Latest.GroundSpeed = models.Ptr(88.0)
			return a
		}(), []string{"UAL123 [US]     ", "Speed: 88kt     "}},
		{"nothing", base, []string{"UAL123 [US]     ", "                "}},
		{"on ground without callsign", ground, []string{"400ABC [GB]     ", "Alt: GND        "}},
		{"truncated", withFlight(newAircraft("A1B2C3", "LONGCALLSIGN", t0, t0), 123456, 999), []string{"LONGCALLSIGN [US", "123456ft 999kt  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := FormatLCD(tt.a, 16, 2)
			if len(got) != 2 || got[0] != tt.want[0] || got[1] != tt.want[1] {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatLCD_FourRows(t *testing.T) {
	t.Parallel()

	a := withFlight(newAircraft("A1B2C3", "UAL123", t0, t0), 35000, 450)
	a.Latest.Squawk = models.Ptr("7700")
	a.Latest.Latitude = models.Ptr(51.4701)
	a.Latest.Longitude = models.Ptr(-0.4543)

	got := FormatLCD(a, 20, 4)
	if len(got) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(got))
	}
	if strings.TrimSpace(got[2]) != "Sqk: 7700" || strings.TrimSpace(got[3]) != "51.470,-0.454" {
		t.Errorf("unexpected rows %q", got)
	}
	for i, line := range got {
		if len(line) != 20 {
			t.Errorf("row %d width %d", i, len(line))
		}
	}
}

func TestFormatOLED(t *testing.T) {
	t.Parallel()

	a := withFlight(newAircraft("3C6444", "DLH4AB", t0, t0), 8000, 210)
	a.Latest.Latitude = models.Ptr(50.0333)
	a.Latest.Longitude = models.Ptr(8.5706)

	got := FormatOLED(a, 21, 4)
	want := []string{"DLH4AB", "Alt:8000ft Spd:210kt", "Country: DE", "50.0333,8.5706"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", got, want)
	}

	if short := FormatOLED(a, 21, 2); len(short) != 2 {
		t.Errorf("expected 2 rows for a 16px panel, got %d", len(short))
	}
}

func TestDisplayQueue(t *testing.T) {
	t.Parallel()

	q := newDisplayQueue()
	if !q.push("A") || !q.push("B") || q.push("A") {
		t.Fatal("push must dedup by icao")
	}
	if q.len() != 2 {
		t.Fatalf("expected 2 queued, got %d", q.len())
	}
	if !q.remove("A") || q.remove("A") {
		t.Error("remove must report presence once")
	}
	if icao, ok := q.pop(); !ok || icao != "B" {
		t.Errorf("pop = %q,%v", icao, ok)
	}
	if _, ok := q.pop(); ok {
		t.Error("queue should be empty")
	}
	// After popping an icao can be queued again.
	if !q.push("B") {
		t.Error("popped icao should be accepted again")
	}
}

func TestLCDNotifier_QueueSemantics(t *testing.T) {
	t.Parallel()

	a := withFlight(newAircraft("A1B2C3", "UAL123", t0, t0), 35000, 450)
	b := newAircraft("400ABC", "BAW1", t0, t0)
	c := newAircraft("3C6444", "DLH4AB", t0, t0)
	tracker := newFakeTracker(a, b, c)
	lcd := NewVirtualLCD(16, 2)
	n := NewLCDNotifier(LCDConfig{Columns: 16, Rows: 2}, lcd, tracker)
	ctx := context.Background()

	for _, ac := range []models.TrackedAircraft{a, b, a, c} {
		if err := n.OnNew(ctx, ac); err != nil {
			t.Fatal(err)
		}
	}
	if n.Pending() != 3 {
		t.Fatalf("expected 3 pending after dedup, got %d", n.Pending())
	}

	// b expires before its turn; c is no longer tracked by the time it is due.
	_ = n.OnExpire(ctx, b.ICAO, t0)
	tracker.remove(c.ICAO)

	if !n.ShowNext() {
		t.Fatal("expected a to be shown")
	}
	if got := lcd.Lines(); got[0] != "UAL123 [US]     " || got[1] != "35000ft 450kt   " {
		t.Errorf("unexpected lcd contents %q", got)
	}
	if n.ShowNext() {
		t.Error("c was evicted and must be skipped")
	}
	if lcd.Frames() != 1 {
		t.Errorf("expected 1 frame, got %d", lcd.Frames())
	}
}

func TestLCDNotifier_RunWithContext(t *testing.T) {
	t.Parallel()

	a := newAircraft("A1B2C3", "UAL123", t0, t0)
	lcd := NewVirtualLCD(16, 2)
	n := NewLCDNotifier(LCDConfig{Columns: 16, Rows: 2, Interval: 5 * time.Millisecond}, lcd, newFakeTracker(a))
	_ = n.OnNew(context.Background(), a)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.RunWithContext(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for n.Pending() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("queued aircraft never shown")
		}
		time.Sleep(2 * time.Millisecond)
	}
	cancel()
	<-done

	if got := lcd.Lines(); strings.TrimSpace(got[1]) != "Shutting down..." {
		t.Errorf("expected shutdown message, got %q", got)
	}
}

func TestOLEDNotifier_ShowNext(t *testing.T) {
	t.Parallel()

	a := withFlight(newAircraft("3C6444", "DLH4AB", t0, t0), 8000, 210)
	panel := NewVirtualPanel()
	n := NewOLEDNotifier(OLEDConfig{Width: 128, Height: 32}, panel, newFakeTracker(a))

	_ = n.OnNew(context.Background(), a)
	if !n.ShowNext() {
		t.Fatal("expected aircraft to be drawn")
	}
	shown := panel.Shown()
	want := []string{"0,0:DLH4AB", "0,8:Alt:8000ft Spd:210kt", "0,16:Country: DE"}
	if strings.Join(shown, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", shown, want)
	}

	_ = n.OnNew(context.Background(), a)
	_ = n.OnExpire(context.Background(), a.ICAO, t0)
	if n.ShowNext() {
		t.Error("expired aircraft must not be drawn")
	}
}

func TestVirtualLCD_RowOutOfRange(t *testing.T) {
	t.Parallel()

	if err := NewVirtualLCD(16, 2).WriteLine(2, "x"); err == nil {
		t.Error("expected error for row 2 on a 2-row display")
	}
}
