// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package registry

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/models"
)

// DefaultPositionHistory is the trail length kept per aircraft when the
// configuration does not specify one.
const DefaultPositionHistory = 50

// ErrOutOfOrder reports an observation older than the aircraft's last sighting.
var ErrOutOfOrder = errors.New("observation older than last sighting")

// Config controls registry behaviour.
type Config struct {
	// PositionHistory caps the per-aircraft trail. Oldest points are dropped first.
	PositionHistory int
}

// Stats is a point-in-time view of registry counters.
type Stats struct {
	Tracked          int    `json:"tracked"`
	Generation       uint64 `json:"generation"`
	DroppedRecords   uint64 `json:"dropped_records"`
	DiscardedUpdates uint64 `json:"discarded_updates"`
	Evicted          uint64 `json:"evicted"`
}

// state is an immutable published view. Neither the map nor the pointed-to
// aircraft are modified after Store.
type state struct {
	byICAO  map[string]*models.TrackedAircraft
	ordered []*models.TrackedAircraft
}

var emptyState = &state{byICAO: map[string]*models.TrackedAircraft{}}

// Registry tracks aircraft by icao.
type Registry struct {
	historyCap int

	// writeMu serializes Merge, Prune and MarkAlerted.
	writeMu    sync.Mutex
	generation uint64

	current atomic.Pointer[state]

	dropped   atomic.Uint64
	discarded atomic.Uint64
	evicted   atomic.Uint64
}

// New creates an empty registry.
func New(cfg Config) *Registry {
	if cfg.PositionHistory <= 0 {
		cfg.PositionHistory = DefaultPositionHistory
	}
	r := &Registry{historyCap: cfg.PositionHistory}
	r.current.Store(emptyState)
	return r
}

// NormalizeICAO canonicalizes a hex identity: trimmed and upper-cased.
func NormalizeICAO(icao string) string {
	return strings.ToUpper(strings.TrimSpace(icao))
}

// Merge applies one batch of observations and returns the resulting
// transitions, one per distinct icao in first-appearance order.
//
// Records without an icao are dropped and counted. Observations older than
// the aircraft's current lastSeen are discarded and logged. The batch is
// published atomically: readers see either none or all of it.
func (r *Registry) Merge(batch []models.AircraftSnapshot, now time.Time) []models.TransitionEvent {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	prev := r.current.Load()
	next := make(map[string]*models.TrackedAircraft, len(prev.byICAO)+len(batch))
	for icao, a := range prev.byICAO {
		if a.IsNew {
			// isNew lasts for at most one full cycle.
			cp := a.Clone()
			cp.IsNew = false
			next[icao] = &cp
			continue
		}
		next[icao] = a
	}

	// Apply in observation order so a duplicate icao within the batch
	// resolves to its latest sighting.
	ordered := make([]models.AircraftSnapshot, 0, len(batch))
	for i := range batch {
		snap := batch[i]
		snap.ICAO = NormalizeICAO(snap.ICAO)
		if snap.ICAO == "" {
			r.dropped.Add(1)
			continue
		}
		if snap.ObservedAt.IsZero() {
			snap.ObservedAt = now
		}
		ordered = append(ordered, snap)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ObservedAt.Before(ordered[j].ObservedAt)
	})

	var (
		order   []string
		created = make(map[string]bool)
		touched = make(map[string]bool)
	)

	for i := range ordered {
		snap := &ordered[i]
		existing, ok := next[snap.ICAO]
		if !ok {
			r.generation++
			a := r.create(snap, r.generation)
			next[snap.ICAO] = a
			created[snap.ICAO] = true
			touched[snap.ICAO] = true
			order = append(order, snap.ICAO)
			continue
		}

		updated, err := r.update(existing, snap, created[snap.ICAO])
		if err != nil {
			r.discarded.Add(1)
			logging.Error().
				Err(err).
				Str("icao", snap.ICAO).
				Uint64("generation", existing.Generation).
				Time("last_seen", existing.LastSeen).
				Time("observed_at", snap.ObservedAt).
				Msg("discarding observation")
			continue
		}
		next[snap.ICAO] = updated
		if !touched[snap.ICAO] {
			touched[snap.ICAO] = true
			order = append(order, snap.ICAO)
		}
	}

	r.current.Store(publish(next))

	events := make([]models.TransitionEvent, 0, len(order))
	for _, icao := range order {
		a := next[icao]
		if created[icao] {
			events = append(events, models.NewAircraftEvent(a))
		} else {
			events = append(events, models.UpdatedEvent(a))
		}
	}
	return events
}

func (r *Registry) create(snap *models.AircraftSnapshot, generation uint64) *models.TrackedAircraft {
	a := &models.TrackedAircraft{
		ICAO:       snap.ICAO,
		FirstSeen:  snap.ObservedAt,
		LastSeen:   snap.ObservedAt,
		Latest:     snap.Clone(),
		IsNew:      true,
		Generation: generation,
	}
	if snap.Callsign != nil {
		a.Callsign = strings.TrimSpace(*snap.Callsign)
	}
	if snap.HasPosition() {
		a.Positions = []models.Position{{
			Latitude:  *snap.Latitude,
			Longitude: *snap.Longitude,
			At:        snap.ObservedAt,
		}}
	}
	return a
}

// update returns a new aircraft value; existing is never modified because it
// may be part of a published state.
func (r *Registry) update(existing *models.TrackedAircraft, snap *models.AircraftSnapshot, createdThisBatch bool) (*models.TrackedAircraft, error) {
	if snap.ObservedAt.Before(existing.LastSeen) {
		return nil, ErrOutOfOrder
	}

	a := existing.Clone()
	a.Latest = snap.Overlay(&existing.Latest)
	a.LastSeen = snap.ObservedAt
	a.IsNew = createdThisBatch
	if snap.Callsign != nil {
		if cs := strings.TrimSpace(*snap.Callsign); cs != "" {
			a.Callsign = cs
		}
	}

	if snap.HasPosition() {
		p := models.Position{Latitude: *snap.Latitude, Longitude: *snap.Longitude, At: snap.ObservedAt}
		if n := len(a.Positions); n > 0 && a.Positions[n-1].At.Equal(p.At) {
			a.Positions[n-1] = p
		} else {
			a.Positions = append(a.Positions, p)
		}
		if over := len(a.Positions) - r.historyCap; over > 0 {
			a.Positions = append([]models.Position(nil), a.Positions[over:]...)
		}
	}
	return &a, nil
}

// Prune removes every aircraft with now - lastSeen > timeout and returns an
// Expired event for each, in snapshot order.
func (r *Registry) Prune(now time.Time, timeout time.Duration) []models.TransitionEvent {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	prev := r.current.Load()
	var events []models.TransitionEvent
	for _, a := range prev.ordered {
		if now.Sub(a.LastSeen) > timeout {
			events = append(events, models.ExpiredEvent(a))
		}
	}
	if len(events) == 0 {
		return nil
	}

	next := make(map[string]*models.TrackedAircraft, len(prev.byICAO)-len(events))
	for icao, a := range prev.byICAO {
		next[icao] = a
	}
	for i := range events {
		delete(next, events[i].ICAO)
	}
	r.current.Store(publish(next))
	r.evicted.Add(uint64(len(events)))
	return events
}

// Snapshot returns independent copies of all tracked aircraft ordered by
// lastSeen descending, ties broken by icao ascending.
func (r *Registry) Snapshot() []models.TrackedAircraft {
	s := r.current.Load()
	out := make([]models.TrackedAircraft, len(s.ordered))
	for i, a := range s.ordered {
		out[i] = a.Clone()
	}
	return out
}

// Lookup returns a copy of the aircraft with the given icao.
func (r *Registry) Lookup(icao string) (models.TrackedAircraft, bool) {
	a, ok := r.current.Load().byICAO[NormalizeICAO(icao)]
	if !ok {
		return models.TrackedAircraft{}, false
	}
	return a.Clone(), true
}

// Alerted reports whether the given identity generation is still tracked and
// whether its NewAircraft alert has been recorded.
func (r *Registry) Alerted(icao string, generation uint64) (alerted, tracked bool) {
	a, ok := r.current.Load().byICAO[NormalizeICAO(icao)]
	if !ok || a.Generation != generation {
		return false, false
	}
	return a.Alerted, true
}

// MarkAlerted records that the NewAircraft alert for this identity generation
// was delivered. It returns false if the generation is no longer tracked or
// was already marked.
func (r *Registry) MarkAlerted(icao string, generation uint64) bool {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	icao = NormalizeICAO(icao)
	prev := r.current.Load()
	a, ok := prev.byICAO[icao]
	if !ok {
		return false
	}
	if a.Generation != generation {
		logging.Warn().
			Str("icao", icao).
			Uint64("tracked_generation", a.Generation).
			Uint64("alert_generation", generation).
			Msg("alert acknowledgement for stale generation ignored")
		return false
	}
	if a.Alerted {
		return false
	}

	cp := a.Clone()
	cp.Alerted = true
	cp.IsNew = false

	next := make(map[string]*models.TrackedAircraft, len(prev.byICAO))
	for k, v := range prev.byICAO {
		next[k] = v
	}
	next[icao] = &cp
	r.current.Store(publish(next))
	return true
}

// Len returns the number of tracked aircraft.
func (r *Registry) Len() int {
	return len(r.current.Load().byICAO)
}

// Stats returns registry counters.
func (r *Registry) Stats() Stats {
	r.writeMu.Lock()
	gen := r.generation
	r.writeMu.Unlock()
	return Stats{
		Tracked:          r.Len(),
		Generation:       gen,
		DroppedRecords:   r.dropped.Load(),
		DiscardedUpdates: r.discarded.Load(),
		Evicted:          r.evicted.Load(),
	}
}

func publish(m map[string]*models.TrackedAircraft) *state {
	ordered := make([]*models.TrackedAircraft, 0, len(m))
	for _, a := range m {
		ordered = append(ordered, a)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].LastSeen.Equal(ordered[j].LastSeen) {
			return ordered[i].LastSeen.After(ordered[j].LastSeen)
		}
		return ordered[i].ICAO < ordered[j].ICAO
	})
	return &state{byICAO: m, ordered: ordered}
}
