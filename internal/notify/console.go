// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package notify

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/piplane/internal/enrich"
	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/models"
)

const (
	newTag        = "[NEW]"
	detailTrail   = 5
	consoleRuler  = "================================================"
	clockLayout   = "15:04:05"
	defaultRows   = 15
	defaultNewTag = 30 * time.Second
)

// SnapshotSource is the read side of the registry.
type SnapshotSource interface {
	Snapshot() []models.TrackedAircraft
}

// ConsoleConfig configures ConsoleView.
type ConsoleConfig struct {
	Refresh     time.Duration
	MaxRows     int
	NewTagFor   time.Duration
	Location    *time.Location
	ShowDetails bool
}

// ConsoleView renders the tracked-aircraft list to a terminal.
type ConsoleView struct {
	cfg    ConsoleConfig
	out    io.Writer
	source SnapshotSource
	now    func() time.Time

	in       io.Reader
	selMu    sync.Mutex
	selected string // icao shown in the detail view, empty for the list

	dirty atomic.Bool
	mu    sync.Mutex // serializes writes to out
}

// NewConsoleView creates a console renderer reading from source.
func NewConsoleView(cfg ConsoleConfig, out io.Writer, source SnapshotSource) *ConsoleView {
	if cfg.Refresh <= 0 {
		cfg.Refresh = time.Second
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = defaultRows
	}
	if cfg.NewTagFor <= 0 {
		cfg.NewTagFor = defaultNewTag
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &ConsoleView{cfg: cfg, out: out, source: source, now: time.Now}
}

// SetInput enables interactive selection from in, one command per line:
// a row number opens that aircraft's detail view and any line returns to
// the list. Call before RunWithContext.
func (v *ConsoleView) SetInput(in io.Reader) {
	v.in = in
}

// Select applies one line of console input.
func (v *ConsoleView) Select(line string) {
	defer v.dirty.Store(true)

	v.selMu.Lock()
	defer v.selMu.Unlock()
	if v.selected != "" {
		v.selected = ""
		return
	}

	row, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || row < 1 || row > v.cfg.MaxRows {
		return
	}
	sorted := sortByLastSeen(v.source.Snapshot())
	if row > len(sorted) {
		return
	}
	v.selected = sorted[row-1].ICAO
}

// Selected returns the icao in the detail view, or "".
func (v *ConsoleView) Selected() string {
	v.selMu.Lock()
	defer v.selMu.Unlock()
	return v.selected
}

// Name implements alert.Notifier.
func (v *ConsoleView) Name() string { return "console" }

// Enabled implements alert.Notifier.
func (v *ConsoleView) Enabled() bool { return v.out != nil }

// OnNew implements alert.NewAircraftHandler.
func (v *ConsoleView) OnNew(context.Context, models.TrackedAircraft) error {
	v.dirty.Store(true)
	return nil
}

// OnUpdate implements alert.UpdateHandler.
func (v *ConsoleView) OnUpdate(context.Context, models.TrackedAircraft) error {
	v.dirty.Store(true)
	return nil
}

// OnExpire implements alert.ExpireHandler.
func (v *ConsoleView) OnExpire(context.Context, string, time.Time) error {
	v.dirty.Store(true)
	return nil
}

// RunWithContext redraws on every refresh tick when something changed or a
// [NEW] tag is still aging out.
func (v *ConsoleView) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(v.cfg.Refresh)
	defer ticker.Stop()

	var input <-chan string
	if v.in != nil {
		input = readLines(ctx, v.in)
	}

	tagged := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-input:
			if !ok {
				input = nil
				continue
			}
			v.Select(line)
			v.dirty.Store(false)
			var err error
			if tagged, err = v.Render(); err != nil {
				logging.Warn().Err(err).Msg("console render failed")
			}
		case <-ticker.C:
			if !v.dirty.Swap(false) && !tagged {
				continue
			}
			var err error
			tagged, err = v.Render()
			if err != nil {
				logging.Warn().Err(err).Msg("console render failed")
			}
		}
	}
}

// readLines forwards lines from r until EOF or ctx is done.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// Render writes one frame and reports whether any row carries a [NEW] tag.
func (v *ConsoleView) Render() (bool, error) {
	now := v.now()
	aircraft := v.source.Snapshot()

	if icao := v.Selected(); icao != "" {
		for i := range aircraft {
			if aircraft[i].ICAO == icao {
				return false, v.renderDetail(&aircraft[i], now)
			}
		}
		// Gone from the registry: fall back to the list.
		v.selMu.Lock()
		if v.selected == icao {
			v.selected = ""
		}
		v.selMu.Unlock()
	}

	lines := FormatList(aircraft, now, v.cfg.MaxRows, v.cfg.NewTagFor, v.cfg.Location)

	tagged := false
	for i := range aircraft {
		if isRecent(&aircraft[i], now, v.cfg.NewTagFor) {
			tagged = true
			break
		}
	}

	var b strings.Builder
	b.WriteString(consoleRuler + "\n")
	fmt.Fprintf(&b, "Tracked aircraft: %d  (%s)\n", len(aircraft), now.In(v.cfg.Location).Format(clockLayout))
	b.WriteString(consoleRuler + "\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if v.in != nil && len(aircraft) > 0 {
		b.WriteString("Enter a row number for details.\n")
	}
	if v.cfg.ShowDetails && len(aircraft) > 0 {
		b.WriteString("\n")
		for _, line := range FormatDetail(sortByLastSeen(aircraft)[0], v.cfg.Location) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	_, err := io.WriteString(v.out, b.String())
	return tagged, err
}

func (v *ConsoleView) renderDetail(a *models.TrackedAircraft, now time.Time) error {
	var b strings.Builder
	b.WriteString(consoleRuler + "\n")
	fmt.Fprintf(&b, "Aircraft %s  (%s)\n", a.DisplayName(), now.In(v.cfg.Location).Format(clockLayout))
	b.WriteString(consoleRuler + "\n")
	for _, line := range FormatDetail(*a, v.cfg.Location) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("Press Enter to return to the list.\n")

	v.mu.Lock()
	defer v.mu.Unlock()
	_, err := io.WriteString(v.out, b.String())
	return err
}

func isRecent(a *models.TrackedAircraft, now time.Time, window time.Duration) bool {
	return now.Sub(a.FirstSeen) <= window
}

func sortByLastSeen(in []models.TrackedAircraft) []models.TrackedAircraft {
	out := make([]models.TrackedAircraft, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].ICAO < out[j].ICAO
	})
	return out
}

// FormatList renders at most maxRows lines, most recently seen first:
//
//	 1. UAL123      [NEW]  | 12:04:55
//	 2. A1B2C3             | 12:04:31
func FormatList(aircraft []models.TrackedAircraft, now time.Time, maxRows int, tagFor time.Duration, loc *time.Location) []string {
	if len(aircraft) == 0 {
		return []string{"No aircraft currently tracked."}
	}

	sorted := sortByLastSeen(aircraft)
	n := len(sorted)
	if maxRows > 0 && n > maxRows {
		n = maxRows
	}

	lines := make([]string, 0, n+1)
	for i := 0; i < n; i++ {
		a := &sorted[i]
		tag := ""
		if isRecent(a, now, tagFor) {
			tag = newTag
		}
		lines = append(lines, fmt.Sprintf("%2d. %-12s%-6s | %s",
			i+1, a.DisplayName(), tag, a.LastSeen.In(loc).Format(clockLayout)))
	}
	if extra := len(sorted) - n; extra > 0 {
		lines = append(lines, fmt.Sprintf("    ... and %d more", extra))
	}
	return lines
}

// FormatDetail renders one aircraft with its last few trail points.
func FormatDetail(a models.TrackedAircraft, loc *time.Location) []string {
	callsign := a.Callsign
	if callsign == "" {
		callsign = "N/A"
	}

	lines := []string{
		fmt.Sprintf("ICAO:        %s (%s)", a.ICAO, enrich.Country(a.ICAO)),
		fmt.Sprintf("Callsign:    %s", callsign),
		fmt.Sprintf("First seen:  %s", a.FirstSeen.In(loc).Format(clockLayout)),
		fmt.Sprintf("Last seen:   %s", a.LastSeen.In(loc).Format(clockLayout)),
		fmt.Sprintf("Tracked for: %s", a.TrackedFor().Round(time.Second)),
		fmt.Sprintf("Altitude:    %s", formatAltitude(&a.Latest)),
		fmt.Sprintf("Speed:       %s", formatOptional(a.Latest.GroundSpeed, "%.0f kt")),
		fmt.Sprintf("Positions:   %d", len(a.Positions)),
	}

	start := len(a.Positions) - detailTrail
	if start < 0 {
		start = 0
	}
	for _, p := range a.Positions[start:] {
		lines = append(lines, fmt.Sprintf("  %9.5f, %10.5f @ %s", p.Latitude, p.Longitude, p.At.In(loc).Format(clockLayout)))
	}
	return lines
}

func formatAltitude(s *models.AircraftSnapshot) string {
	if s.OnGround {
		return "ground"
	}
	return formatOptional(s.Altitude, "%.0f ft")
}

func formatOptional(v *float64, format string) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf(format, *v)
}
