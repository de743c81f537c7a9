// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package alert

import (
	"context"
	"strings"
	"time"

	"github.com/tomtom215/piplane/internal/models"
)

// Notifier is the minimum every sink implements.
type Notifier interface {
	// Name identifies the sink in logs, metrics and Unregister.
	Name() string
	// Enabled lets a sink be registered but switched off.
	Enabled() bool
}

// NewAircraftHandler receives the one-shot NewAircraft alert.
type NewAircraftHandler interface {
	Notifier
	OnNew(ctx context.Context, aircraft models.TrackedAircraft) error
}

// UpdateHandler receives every Updated transition. Implemented by sinks that
// render the live picture.
type UpdateHandler interface {
	Notifier
	OnUpdate(ctx context.Context, aircraft models.TrackedAircraft) error
}

// ExpireHandler receives evictions.
type ExpireHandler interface {
	Notifier
	OnExpire(ctx context.Context, icao string, lastSeen time.Time) error
}

// Capability is a bit set of the transition kinds a notifier handles.
type Capability uint8

const (
	CapNew Capability = 1 << iota
	CapUpdate
	CapExpire
)

// Has reports whether c includes other.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

func (c Capability) String() string {
	var parts []string
	if c.Has(CapNew) {
		parts = append(parts, "new")
	}
	if c.Has(CapUpdate) {
		parts = append(parts, "update")
	}
	if c.Has(CapExpire) {
		parts = append(parts, "expire")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// CapabilitiesOf inspects which handler interfaces n implements.
func CapabilitiesOf(n Notifier) Capability {
	var c Capability
	if _, ok := n.(NewAircraftHandler); ok {
		c |= CapNew
	}
	if _, ok := n.(UpdateHandler); ok {
		c |= CapUpdate
	}
	if _, ok := n.(ExpireHandler); ok {
		c |= CapExpire
	}
	return c
}

func capabilityFor(kind models.TransitionKind) Capability {
	switch kind {
	case models.TransitionNew:
		return CapNew
	case models.TransitionUpdated:
		return CapUpdate
	case models.TransitionExpired:
		return CapExpire
	default:
		return 0
	}
}

// deliver invokes the handler matching ev.Kind.
func deliver(ctx context.Context, n Notifier, ev *models.TransitionEvent) error {
	switch ev.Kind {
	case models.TransitionNew:
		if h, ok := n.(NewAircraftHandler); ok {
			return h.OnNew(ctx, ev.Aircraft)
		}
	case models.TransitionUpdated:
		if h, ok := n.(UpdateHandler); ok {
			return h.OnUpdate(ctx, ev.Aircraft)
		}
	case models.TransitionExpired:
		if h, ok := n.(ExpireHandler); ok {
			return h.OnExpire(ctx, ev.ICAO, ev.LastSeen)
		}
	}
	return nil
}

// Ledger records which identity generations have been alerted. The registry
// implements it so that the alerted flag is visible to readers.
type Ledger interface {
	Alerted(icao string, generation uint64) (alerted, tracked bool)
	MarkAlerted(icao string, generation uint64) bool
}
