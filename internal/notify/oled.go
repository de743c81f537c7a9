// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/piplane/internal/enrich"
	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/models"
)

// Text metrics of the built-in 5x7 font with spacing.
const (
	glyphWidth  = 6
	glyphHeight = 8
)

// Panel is a monochrome pixel display such as an SSD1306. DrawText draws
// into an off-screen buffer; Show pushes it to the glass.
type Panel interface {
	Clear() error
	DrawText(x, y int, text string) error
	Show() error
}

// OLEDConfig configures OLEDNotifier.
type OLEDConfig struct {
	Width    int
	Height   int
	Interval time.Duration
}

// OLEDNotifier shows newly detected aircraft on a small OLED panel with the
// same queueing rules as LCDNotifier.
type OLEDNotifier struct {
	cfg     OLEDConfig
	panel   Panel
	tracker Tracker
	queue   *displayQueue
}

// NewOLEDNotifier creates an OLED sink. Invalid geometry falls back to 128x32.
func NewOLEDNotifier(cfg OLEDConfig, panel Panel, tracker Tracker) *OLEDNotifier {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 128, 32
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	return &OLEDNotifier{cfg: cfg, panel: panel, tracker: tracker, queue: newDisplayQueue()}
}

// Name implements alert.Notifier.
func (n *OLEDNotifier) Name() string { return "oled" }

// Enabled implements alert.Notifier.
func (n *OLEDNotifier) Enabled() bool { return n.panel != nil }

// OnNew implements alert.NewAircraftHandler.
func (n *OLEDNotifier) OnNew(_ context.Context, a models.TrackedAircraft) error {
	n.queue.push(a.ICAO)
	return nil
}

// OnExpire implements alert.ExpireHandler.
func (n *OLEDNotifier) OnExpire(_ context.Context, icao string, _ time.Time) error {
	n.queue.remove(icao)
	return nil
}

// Pending returns the number of aircraft waiting to be shown.
func (n *OLEDNotifier) Pending() int { return n.queue.len() }

func (n *OLEDNotifier) rows() int { return n.cfg.Height / glyphHeight }
func (n *OLEDNotifier) cols() int { return n.cfg.Width / glyphWidth }

// RunWithContext drives the panel until ctx is canceled.
func (n *OLEDNotifier) RunWithContext(ctx context.Context) error {
	n.draw("PiPlane Tracker", "Monitoring...")

	ticker := time.NewTicker(n.cfg.Interval)
	defer ticker.Stop()

	idle := true
	for {
		select {
		case <-ctx.Done():
			if err := n.panel.Clear(); err == nil {
				_ = n.panel.Show()
			}
			return ctx.Err()
		case <-ticker.C:
			a, ok := n.queue.next(n.tracker)
			switch {
			case ok:
				n.draw(FormatOLED(a, n.cols(), n.rows())...)
				idle = false
			case !idle:
				n.draw("PiPlane Tracker", "Monitoring...")
				idle = true
			}
		}
	}
}

// ShowNext renders the next queued aircraft.
func (n *OLEDNotifier) ShowNext() bool {
	a, ok := n.queue.next(n.tracker)
	if ok {
		n.draw(FormatOLED(a, n.cols(), n.rows())...)
	}
	return ok
}

func (n *OLEDNotifier) draw(lines ...string) {
	err := n.panel.Clear()
	for i := 0; i < len(lines) && i < n.rows() && err == nil; i++ {
		err = n.panel.DrawText(0, i*glyphHeight, truncate(lines[i], n.cols()))
	}
	if err == nil {
		err = n.panel.Show()
	}
	if err != nil {
		logging.Warn().Err(err).Str("display", "oled").Msg("display write failed")
	}
}

// FormatOLED renders up to rows text lines: name, altitude and speed,
// country, then position.
func FormatOLED(a models.TrackedAircraft, cols, rows int) []string {
	s := &a.Latest
	alt := "N/A"
	switch {
	case s.OnGround:
		alt = "GND"
	case s.Altitude != nil:
		alt = fmt.Sprintf("%.0fft", *s.Altitude)
	}
	spd := "N/A"
	if s.GroundSpeed != nil {
		spd = fmt.Sprintf("%.0fkt", *s.GroundSpeed)
	}

	lines := []string{
		a.DisplayName(),
		fmt.Sprintf("Alt:%s Spd:%s", alt, spd),
		"Country: " + enrich.Country(a.ICAO),
	}
	if s.HasPosition() {
		lines = append(lines, fmt.Sprintf("%.4f,%.4f", *s.Latitude, *s.Longitude))
	}
	if rows < len(lines) {
		lines = lines[:rows]
	}
	for i := range lines {
		lines[i] = truncate(lines[i], cols)
	}
	return lines
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width])
	}
	return s
}
