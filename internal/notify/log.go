// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package notify

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/piplane/internal/enrich"
	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/models"
)

// enrichTimeout bounds the background lookup behind one alert.
const enrichTimeout = 15 * time.Second

// LogNotifier writes alerts to the structured log. It is the primary sink:
// it never blocks, so the engine calls it inline. Registration data from the
// enricher arrives as a second "aircraft enriched" line.
type LogNotifier struct {
	enricher enrich.Enricher
	wg       sync.WaitGroup
}

// NewLogNotifier creates the log sink. enricher may be nil.
func NewLogNotifier(enricher enrich.Enricher) *LogNotifier {
	return &LogNotifier{enricher: enricher}
}

// Name implements alert.Notifier.
func (n *LogNotifier) Name() string { return "log" }

// Enabled implements alert.Notifier.
func (n *LogNotifier) Enabled() bool { return true }

// OnNew implements alert.NewAircraftHandler.
func (n *LogNotifier) OnNew(ctx context.Context, a models.TrackedAircraft) error {
	ev := logging.Ctx(ctx).Info().
		Str("icao", a.ICAO).
		Str("callsign", a.Callsign).
		Str("country", enrich.Country(a.ICAO)).
		Uint64("generation", a.Generation).
		Time("first_seen", a.FirstSeen)

	s := &a.Latest
	if s.Altitude != nil {
		ev = ev.Float64("altitude_ft", *s.Altitude)
	}
	if s.GroundSpeed != nil {
		ev = ev.Float64("ground_speed_kt", *s.GroundSpeed)
	}
	if s.HasPosition() {
		ev = ev.Float64("lat", *s.Latitude).Float64("lon", *s.Longitude)
	}
	if s.Squawk != nil {
		ev = ev.Str("squawk", *s.Squawk)
	}
	ev.Msg("new aircraft detected")

	if n.enricher != nil {
		n.enrich(ctx, a.ICAO)
	}
	return nil
}

func (n *LogNotifier) enrich(ctx context.Context, icao string) {
	logger := logging.Ctx(ctx)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enrichTimeout)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer cancel()

		info := n.enricher.Enrich(ctx, icao)
		if info.Registration == "" && info.Type == "" && info.Owner == "" {
			return
		}
		logger.Info().
			Str("icao", icao).
			Str("registration", info.Registration).
			Str("type", info.Type).
			Str("manufacturer", info.Manufacturer).
			Str("owner", info.Owner).
			Msg("aircraft enriched")
	}()
}

// Wait blocks until background enrichment lookups have finished.
func (n *LogNotifier) Wait() {
	n.wg.Wait()
}

// OnExpire implements alert.ExpireHandler.
func (n *LogNotifier) OnExpire(ctx context.Context, icao string, lastSeen time.Time) error {
	logging.Ctx(ctx).Info().
		Str("icao", icao).
		Time("last_seen", lastSeen).
		Msg("aircraft out of range")
	return nil
}
