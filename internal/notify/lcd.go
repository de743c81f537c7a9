// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/piplane/internal/enrich"
	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/models"
)

// CharDisplay is a character LCD driver. Rows are zero-based.
type CharDisplay interface {
	Clear() error
	WriteLine(row int, text string) error
}

// LCDConfig configures LCDNotifier.
type LCDConfig struct {
	Columns  int
	Rows     int
	Interval time.Duration
}

// LCDNotifier shows newly detected aircraft on a character LCD, one per
// interval. An aircraft evicted before its turn is skipped.
type LCDNotifier struct {
	cfg     LCDConfig
	display CharDisplay
	tracker Tracker
	queue   *displayQueue
}

// NewLCDNotifier creates an LCD sink. Invalid geometry falls back to 16x2.
func NewLCDNotifier(cfg LCDConfig, display CharDisplay, tracker Tracker) *LCDNotifier {
	if cfg.Columns <= 0 || cfg.Rows <= 0 {
		cfg.Columns, cfg.Rows = 16, 2
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	return &LCDNotifier{cfg: cfg, display: display, tracker: tracker, queue: newDisplayQueue()}
}

// Name implements alert.Notifier.
func (n *LCDNotifier) Name() string { return "lcd" }

// Enabled implements alert.Notifier.
func (n *LCDNotifier) Enabled() bool { return n.display != nil }

// OnNew implements alert.NewAircraftHandler.
func (n *LCDNotifier) OnNew(_ context.Context, a models.TrackedAircraft) error {
	n.queue.push(a.ICAO)
	return nil
}

// OnExpire implements alert.ExpireHandler.
func (n *LCDNotifier) OnExpire(_ context.Context, icao string, _ time.Time) error {
	n.queue.remove(icao)
	return nil
}

// Pending returns the number of aircraft waiting to be shown.
func (n *LCDNotifier) Pending() int { return n.queue.len() }

// RunWithContext drives the display until ctx is canceled.
func (n *LCDNotifier) RunWithContext(ctx context.Context) error {
	n.write("PiPlane Tracker", "Monitoring...")

	ticker := time.NewTicker(n.cfg.Interval)
	defer ticker.Stop()

	idle := true
	for {
		select {
		case <-ctx.Done():
			n.write("PiPlane Tracker", "Shutting down...")
			return ctx.Err()
		case <-ticker.C:
			a, ok := n.queue.next(n.tracker)
			switch {
			case ok:
				n.write(FormatLCD(a, n.cfg.Columns, n.cfg.Rows)...)
				idle = false
			case !idle:
				n.write("PiPlane Tracker", "Monitoring...")
				idle = true
			}
		}
	}
}

// ShowNext renders the next queued aircraft. It reports false when nothing
// tracked was waiting.
func (n *LCDNotifier) ShowNext() bool {
	a, ok := n.queue.next(n.tracker)
	if ok {
		n.write(FormatLCD(a, n.cfg.Columns, n.cfg.Rows)...)
	}
	return ok
}

func (n *LCDNotifier) write(lines ...string) {
	err := n.display.Clear()
	for row := 0; row < n.cfg.Rows && row < len(lines) && err == nil; row++ {
		err = n.display.WriteLine(row, fitWidth(lines[row], n.cfg.Columns))
	}
	if err != nil {
		logging.Warn().Err(err).Str("display", "lcd").Msg("display write failed")
	}
}

// FormatLCD renders an aircraft for a rows x cols character display:
//
//	UAL123 [US]
//	35000ft 450kt
//
// Four-row displays add squawk and position.
func FormatLCD(a models.TrackedAircraft, cols, rows int) []string {
	s := &a.Latest
	lines := []string{
		fmt.Sprintf("%s [%s]", a.DisplayName(), enrich.Country(a.ICAO)),
		altitudeSpeedLine(s),
	}
	if rows >= 4 {
		sq := ""
		if s.Squawk != nil {
			sq = "Sqk: " + *s.Squawk
		}
		pos := ""
		if s.HasPosition() {
			pos = fmt.Sprintf("%.3f,%.3f", *s.Latitude, *s.Longitude)
		}
		lines = append(lines, sq, pos)
	}
	for i := range lines {
		lines[i] = fitWidth(lines[i], cols)
	}
	if rows < len(lines) {
		lines = lines[:rows]
	}
	return lines
}

func altitudeSpeedLine(s *models.AircraftSnapshot) string {
	alt := ""
	switch {
	case s.OnGround:
		alt = "GND"
	case s.Altitude != nil:
		alt = fmt.Sprintf("%.0fft", *s.Altitude)
	}
	spd := ""
	if s.GroundSpeed != nil {
		spd = fmt.Sprintf("%.0fkt", *s.GroundSpeed)
	}

	switch {
	case alt != "" && spd != "":
		return alt + " " + spd
	case alt != "":
		return "Alt: " + alt
	case spd != "":
		return "Speed: " + spd
	default:
		return ""
	}
}

// fitWidth truncates or right-pads s to exactly width runes.
func fitWidth(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
