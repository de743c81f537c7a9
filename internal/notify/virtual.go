// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package notify

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tomtom215/piplane/internal/logging"
)

var errRowOutOfRange = errors.New("row out of range")

// VirtualLCD is an in-memory CharDisplay. Each completed frame is logged at
// debug level so the display can be followed on hosts without the hardware.
type VirtualLCD struct {
	mu     sync.Mutex
	cols   int
	lines  []string
	frames int
}

// NewVirtualLCD creates a blank cols x rows display.
func NewVirtualLCD(cols, rows int) *VirtualLCD {
	return &VirtualLCD{cols: cols, lines: make([]string, rows)}
}

// Clear implements CharDisplay.
func (d *VirtualLCD) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.lines {
		d.lines[i] = ""
	}
	return nil
}

// WriteLine implements CharDisplay.
func (d *VirtualLCD) WriteLine(row int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if row < 0 || row >= len(d.lines) {
		return fmt.Errorf("%w: %d", errRowOutOfRange, row)
	}
	d.lines[row] = truncate(text, d.cols)
	if row == len(d.lines)-1 {
		d.frames++
		logging.Debug().Strs("lines", d.lines).Msg("lcd frame")
	}
	return nil
}

// Lines returns the current contents.
func (d *VirtualLCD) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

// Frames counts writes to the last row.
func (d *VirtualLCD) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// VirtualPanel is an in-memory Panel keeping the text of the last shown frame.
type VirtualPanel struct {
	mu      sync.Mutex
	pending []string
	shown   []string
	frames  int
}

// NewVirtualPanel creates an empty panel.
func NewVirtualPanel() *VirtualPanel {
	return &VirtualPanel{}
}

// Clear implements Panel.
func (p *VirtualPanel) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = p.pending[:0]
	return nil
}

// DrawText implements Panel.
func (p *VirtualPanel) DrawText(x, y int, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, fmt.Sprintf("%d,%d:%s", x, y, text))
	return nil
}

// Show implements Panel.
func (p *VirtualPanel) Show() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown[:0], p.pending...)
	p.frames++
	logging.Debug().Str("frame", strings.Join(p.shown, " | ")).Msg("oled frame")
	return nil
}

// Shown returns the text items of the last frame as "x,y:text".
func (p *VirtualPanel) Shown() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.shown))
	copy(out, p.shown)
	return out
}

// Frames counts calls to Show.
func (p *VirtualPanel) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}
