// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/piplane/internal/ingest"
	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/metrics"
	"github.com/tomtom215/piplane/internal/models"
)

// ErrAdapterTimeout is returned when a fetch exceeds AdapterTimeout.
var ErrAdapterTimeout = errors.New("ingestion adapter timed out")

// State is the poller's position in its cycle.
type State int32

const (
	StateIdle State = iota
	StatePolling
	StatePruning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StatePruning:
		return "pruning"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Registry is the write side of the aircraft registry.
type Registry interface {
	Merge(batch []models.AircraftSnapshot, now time.Time) []models.TransitionEvent
	Prune(now time.Time, timeout time.Duration) []models.TransitionEvent
	Len() int
}

// Dispatcher receives transitions. alert.Engine implements it.
type Dispatcher interface {
	Handle(ctx context.Context, events []models.TransitionEvent)
}

// Config holds the poller cadence.
type Config struct {
	PollInterval    time.Duration
	PruneInterval   time.Duration
	AdapterTimeout  time.Duration
	EvictionTimeout time.Duration
}

// DefaultConfig returns the default cadence.
func DefaultConfig() Config {
	return Config{
		PollInterval:    5 * time.Second,
		PruneInterval:   5 * time.Second,
		AdapterTimeout:  10 * time.Second,
		EvictionTimeout: 300 * time.Second,
	}
}

// CycleResult summarizes one poll or prune pass.
type CycleResult struct {
	Phase         string        `json:"phase"`
	CorrelationID string        `json:"correlation_id"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration_ns"`
	Records       int           `json:"records"`
	New           int           `json:"new"`
	Updated       int           `json:"updated"`
	Expired       int           `json:"expired"`
	Tracked       int           `json:"tracked"`
	Err           error         `json:"-"`
	Error         string        `json:"error,omitempty"`
}

// Stats is returned by Poller.Stats.
type Stats struct {
	State     State       `json:"state"`
	Polls     uint64      `json:"polls"`
	Failures  uint64      `json:"failures"`
	Prunes    uint64      `json:"prunes"`
	LastPoll  CycleResult `json:"last_poll"`
	LastPrune CycleResult `json:"last_prune"`

	// LastSuccess is the start of the most recent poll that merged a batch.
	LastSuccess time.Time `json:"last_success"`
	// ConsecutiveFailures resets on every successful poll.
	ConsecutiveFailures uint64 `json:"consecutive_failures"`
}

// Poller is the single writer of the registry.
type Poller struct {
	cfg        Config
	adapter    ingest.Adapter
	registry   Registry
	dispatcher Dispatcher
	now        func() time.Time

	state atomic.Int32

	mu        sync.RWMutex
	lastPoll  CycleResult
	lastPrune CycleResult
	pruneAt   time.Time
	polls     uint64
	failures  uint64
	prunes    uint64

	lastSuccess time.Time
	streak      uint64
}

// New creates a Poller. Zero config fields take their defaults.
func New(cfg Config, adapter ingest.Adapter, registry Registry, dispatcher Dispatcher) *Poller {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = cfg.PollInterval
	}
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = def.AdapterTimeout
	}
	if cfg.EvictionTimeout <= 0 {
		cfg.EvictionTimeout = def.EvictionTimeout
	}
	return &Poller{
		cfg:        cfg,
		adapter:    adapter,
		registry:   registry,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// State returns the current state.
func (p *Poller) State() State {
	return State(p.state.Load())
}

// LastCycle returns the most recent poll result.
func (p *Poller) LastCycle() CycleResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastPoll
}

// Stats returns counters and the last results.
func (p *Poller) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Stats{
		State:     p.State(),
		Polls:     p.polls,
		Failures:  p.failures,
		Prunes:    p.prunes,
		LastPoll:  p.lastPoll,
		LastPrune: p.lastPrune,

		LastSuccess:         p.lastSuccess,
		ConsecutiveFailures: p.streak,
	}
}

// RunWithContext polls immediately and then every PollInterval until ctx is
// canceled.
func (p *Poller) RunWithContext(ctx context.Context) error {
	logging.Info().
		Str("adapter", p.adapter.Name()).
		Dur("poll_interval", p.cfg.PollInterval).
		Dur("prune_interval", p.cfg.PruneInterval).
		Dur("eviction_timeout", p.cfg.EvictionTimeout).
		Msg("poller started")

	p.tick(ctx)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick runs one full Idle -> Polling -> Pruning -> Idle pass.
func (p *Poller) tick(ctx context.Context) {
	ctx = logging.ContextWithNewCorrelationID(ctx)

	res := p.CycleOnce(ctx)
	if ctx.Err() != nil {
		return
	}

	p.mu.RLock()
	due := p.pruneAt.IsZero() || !p.now().Before(p.pruneAt.Add(p.cfg.PruneInterval))
	p.mu.RUnlock()
	if due || res.Err != nil {
		p.PruneOnce(ctx)
	}
}

// CycleOnce fetches, merges and dispatches once. A failed fetch leaves the
// registry untouched.
func (p *Poller) CycleOnce(ctx context.Context) CycleResult {
	p.state.Store(int32(StatePolling))
	defer p.state.Store(int32(StateIdle))

	res := CycleResult{
		Phase:         "poll",
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		StartedAt:     p.now(),
	}
	start := time.Now()
	log := logging.Ctx(ctx)

	batch, err := p.fetch(ctx)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		res.Duration = time.Since(start)
		res.Tracked = p.registry.Len()
		if ctx.Err() != nil {
			log.Debug().Err(err).Msg("poll interrupted by shutdown")
		} else {
			metrics.RecordIngestCycle(res.Duration, 0, ingest.FailureReason(err))
			log.Warn().Err(err).Str("adapter", p.adapter.Name()).Msg("ingestion failed, skipping cycle")
		}
		p.finishPoll(&res)
		return res
	}

	events := p.registry.Merge(batch, p.now())
	res.Records = len(batch)
	countEvents(events, &res)
	res.Tracked = p.registry.Len()

	if len(events) > 0 {
		p.dispatcher.Handle(ctx, events)
	}

	res.Duration = time.Since(start)
	metrics.RecordIngestCycle(res.Duration, res.Records, "")
	metrics.RecordTransitions(res.Tracked, res.New, res.Updated, 0)

	log.Debug().
		Int("records", res.Records).
		Int("new", res.New).
		Int("updated", res.Updated).
		Int("tracked", res.Tracked).
		Dur("duration", res.Duration).
		Msg("poll cycle complete")

	p.finishPoll(&res)
	return res
}

// PruneOnce evicts aircraft idle longer than EvictionTimeout and dispatches
// their expiry.
func (p *Poller) PruneOnce(ctx context.Context) CycleResult {
	p.state.Store(int32(StatePruning))
	defer p.state.Store(int32(StateIdle))

	now := p.now()
	res := CycleResult{
		Phase:         "prune",
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		StartedAt:     now,
	}
	start := time.Now()

	events := p.registry.Prune(now, p.cfg.EvictionTimeout)
	countEvents(events, &res)
	res.Tracked = p.registry.Len()
	if len(events) > 0 {
		p.dispatcher.Handle(ctx, events)
		logging.Ctx(ctx).Debug().Int("expired", res.Expired).Int("tracked", res.Tracked).Msg("prune complete")
	}
	res.Duration = time.Since(start)
	metrics.RecordTransitions(res.Tracked, 0, 0, res.Expired)

	p.mu.Lock()
	p.lastPrune = res
	p.pruneAt = now
	p.prunes++
	p.mu.Unlock()
	return res
}

func (p *Poller) finishPoll(res *CycleResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastPoll = *res
	p.polls++
	if res.Err != nil {
		p.failures++
		p.streak++
		return
	}
	p.lastSuccess = res.StartedAt
	p.streak = 0
}

type fetchResult struct {
	batch []models.AircraftSnapshot
	err   error
}

// fetch bounds the adapter call even if the adapter ignores its context.
func (p *Poller) fetch(ctx context.Context) ([]models.AircraftSnapshot, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.AdapterTimeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		batch, err := p.adapter.Fetch(fetchCtx)
		done <- fetchResult{batch: batch, err: err}
	}()

	select {
	case r := <-done:
		return r.batch, r.err
	case <-fetchCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w after %s: %w", ErrAdapterTimeout, p.cfg.AdapterTimeout, context.DeadlineExceeded)
	}
}

func countEvents(events []models.TransitionEvent, res *CycleResult) {
	for i := range events {
		switch events[i].Kind {
		case models.TransitionNew:
			res.New++
		case models.TransitionUpdated:
			res.Updated++
		case models.TransitionExpired:
			res.Expired++
		}
	}
}
