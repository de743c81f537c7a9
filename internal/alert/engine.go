// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/metrics"
	"github.com/tomtom215/piplane/internal/models"
)

// Config configures the alert engine.
type Config struct {
	// QueueSize bounds each notifier's pending events.
	QueueSize int `json:"queue_size"`

	// NotifierTimeout bounds a single handler call.
	NotifierTimeout time.Duration `json:"notifier_timeout"`

	// ShutdownGrace bounds how long Close waits for queues to drain.
	ShutdownGrace time.Duration `json:"shutdown_grace"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		QueueSize:       64,
		NotifierTimeout: 5 * time.Second,
		ShutdownGrace:   5 * time.Second,
	}
}

// Engine dispatches registry transitions to notifiers.
type Engine struct {
	cfg    Config
	ledger Ledger

	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.RWMutex
	primary NewAircraftHandler
	pguard  *guard
	workers []*worker
	closed  bool

	// handleMu serializes Handle so the dedup check and the mark are atomic.
	handleMu sync.Mutex
	fired    map[string]uint64 // icao -> alerted generation
	queued   map[string]uint64 // icao -> generation already fanned out to workers

	pendingMu sync.Mutex
	pending   int
	idle      chan struct{}
}

// NewEngine creates an engine. ledger may be nil, in which case dedup state
// lives only inside the engine.
func NewEngine(cfg Config, ledger Ledger) *Engine {
	def := DefaultConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.NotifierTimeout <= 0 {
		cfg.NotifierTimeout = def.NotifierTimeout
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = def.ShutdownGrace
	}

	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)

	return &Engine{
		cfg:     cfg,
		ledger:  ledger,
		baseCtx: ctx,
		cancel:  cancel,
		fired:   make(map[string]uint64),
		queued:  make(map[string]uint64),
		idle:    idle,
	}
}

// SetPrimary installs the primary sink. It is called inline from Handle and
// its success is what marks an aircraft as alerted. If it also implements
// ExpireHandler it receives removals inline too.
func (e *Engine) SetPrimary(n NewAircraftHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.primary = n
	e.pguard = &guard{name: n.Name()}
	logging.Info().Str("notifier", n.Name()).Msg("registered primary notifier")
}

// Register appends a notifier. Dispatch order is registration order.
func (e *Engine) Register(n Notifier) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	for _, w := range e.workers {
		if w.notifier.Name() == n.Name() {
			return fmt.Errorf("%w: %s", ErrDuplicateNotifier, n.Name())
		}
	}

	w := newWorker(n, e.cfg.QueueSize)
	e.workers = append(e.workers, w)
	go w.run(e.baseCtx, e.cfg.NotifierTimeout, e.jobDone)

	logging.Info().
		Str("notifier", n.Name()).
		Str("capabilities", w.caps.String()).
		Bool("enabled", n.Enabled()).
		Msg("registered notifier")
	return nil
}

// Unregister removes the notifier with n's name. Events still queued for it
// are abandoned. Returns false if it was not registered.
func (e *Engine) Unregister(n Notifier) bool {
	e.mu.Lock()
	var removed *worker
	for i, w := range e.workers {
		if w.notifier.Name() == n.Name() {
			removed = w
			e.workers = append(e.workers[:i:i], e.workers[i+1:]...)
			break
		}
	}
	e.mu.Unlock()

	if removed == nil {
		return false
	}
	close(removed.stop)
	logging.Info().Str("notifier", n.Name()).Msg("unregistered notifier")
	return true
}

// Notifiers returns registered notifier names in dispatch order.
func (e *Engine) Notifiers() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, len(e.workers))
	for i, w := range e.workers {
		names[i] = w.notifier.Name()
	}
	return names
}

// Handle dispatches a batch of transitions. It never returns an error:
// notifier failures are logged and counted.
func (e *Engine) Handle(ctx context.Context, events []models.TransitionEvent) {
	if len(events) == 0 {
		return
	}

	e.handleMu.Lock()
	defer e.handleMu.Unlock()

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		logging.Debug().Int("events", len(events)).Msg("alert engine closed, dropping events")
		return
	}

	correlationID := logging.CorrelationIDFromContext(ctx)
	for i := range events {
		ev := &events[i]
		switch ev.Kind {
		case models.TransitionNew:
			e.handleNew(ctx, ev, correlationID)
		case models.TransitionUpdated:
			e.enqueue(ev, correlationID)
		case models.TransitionExpired:
			e.handleExpired(ctx, ev, correlationID)
		}
	}
}

// handleNew must be called with handleMu and mu (read) held.
func (e *Engine) handleNew(ctx context.Context, ev *models.TransitionEvent, correlationID string) {
	gen := ev.Aircraft.Generation
	if ev.Aircraft.Alerted {
		return
	}
	if g, ok := e.fired[ev.ICAO]; ok && g == gen {
		return
	}
	if e.ledger != nil {
		if alerted, _ := e.ledger.Alerted(ev.ICAO, gen); alerted {
			e.fired[ev.ICAO] = gen
			return
		}
	}

	primaryOK := true
	if e.primary != nil && e.primary.Enabled() {
		start := time.Now()
		err := e.pguard.call(e.primaryContext(ctx), e.cfg.NotifierTimeout, func(c context.Context) error {
			return e.primary.OnNew(c, ev.Aircraft)
		})
		e.pguard.record(ev, correlationID, err, time.Since(start))
		primaryOK = err == nil
	}

	// Workers see each generation once. A retry after a primary failure
	// only calls the primary again.
	if g, ok := e.queued[ev.ICAO]; !ok || g != gen {
		e.queued[ev.ICAO] = gen
		e.enqueue(ev, correlationID)
	}

	if !primaryOK {
		// Not marked: a later Handle with the same generation retries.
		return
	}
	e.fired[ev.ICAO] = gen
	if e.ledger != nil {
		e.ledger.MarkAlerted(ev.ICAO, gen)
	}
	metrics.AlertsFired.Inc()
}

func (e *Engine) handleExpired(ctx context.Context, ev *models.TransitionEvent, correlationID string) {
	if gen, ok := e.fired[ev.ICAO]; ok && gen <= ev.Aircraft.Generation {
		delete(e.fired, ev.ICAO)
	}
	if gen, ok := e.queued[ev.ICAO]; ok && gen <= ev.Aircraft.Generation {
		delete(e.queued, ev.ICAO)
	}

	if e.primary != nil && e.primary.Enabled() {
		if h, ok := e.primary.(ExpireHandler); ok {
			start := time.Now()
			err := e.pguard.call(e.primaryContext(ctx), e.cfg.NotifierTimeout, func(c context.Context) error {
				return h.OnExpire(c, ev.ICAO, ev.LastSeen)
			})
			e.pguard.record(ev, correlationID, err, time.Since(start))
		}
	}

	e.enqueue(ev, correlationID)
}

// primaryContext keeps the caller's values but not its cancellation, so a
// cycle context canceled right after Handle returns does not abort the sink.
func (e *Engine) primaryContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// enqueue must be called with mu (read) held.
func (e *Engine) enqueue(ev *models.TransitionEvent, correlationID string) {
	want := capabilityFor(ev.Kind)
	for _, w := range e.workers {
		if !w.caps.Has(want) || !w.notifier.Enabled() {
			continue
		}
		e.addPending()
		select {
		case w.queue <- job{event: *ev, correlationID: correlationID}:
			metrics.NotifierQueueDepth.WithLabelValues(w.guard.name).Set(float64(len(w.queue)))
		default:
			e.jobDone()
			w.guard.record(ev, correlationID, ErrQueueFull, 0)
		}
	}
}

func (e *Engine) addPending() {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	if e.pending == 0 {
		e.idle = make(chan struct{})
	}
	e.pending++
}

func (e *Engine) jobDone() {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	e.pending--
	if e.pending == 0 {
		close(e.idle)
	}
}

// Flush waits until every queued event has been handled or ctx is done.
func (e *Engine) Flush(ctx context.Context) error {
	e.pendingMu.Lock()
	idle := e.idle
	e.pendingMu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns per-notifier counters, primary first.
func (e *Engine) Stats() []NotifierStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]NotifierStats, 0, len(e.workers)+1)
	if e.primary != nil {
		s := e.pguard.stats()
		s.Primary = true
		s.Enabled = e.primary.Enabled()
		s.Capabilities = CapabilitiesOf(e.primary).String()
		out = append(out, s)
	}
	for _, w := range e.workers {
		s := w.guard.stats()
		s.Enabled = w.notifier.Enabled()
		s.Capabilities = w.caps.String()
		s.QueueDepth = len(w.queue)
		out = append(out, s)
	}
	return out
}

// Close stops accepting events, waits up to ShutdownGrace for queues to
// drain, then abandons whatever is left.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	workers := e.workers
	e.workers = nil
	e.mu.Unlock()

	graceCtx, cancel := context.WithTimeout(context.Background(), e.cfg.ShutdownGrace)
	defer cancel()

	if err := e.Flush(graceCtx); err != nil {
		logging.Warn().Dur("grace", e.cfg.ShutdownGrace).Msg("abandoning undelivered notifications")
	}

	e.cancel()
	for _, w := range workers {
		close(w.stop)
	}
	for _, w := range workers {
		select {
		case <-w.done:
		case <-graceCtx.Done():
			logging.Warn().Str("notifier", w.guard.name).Msg("notifier worker did not stop in time")
		}
	}
	return nil
}

// RunWithContext blocks until ctx is canceled, then closes the engine.
// It lets the engine be supervised like any other service.
func (e *Engine) RunWithContext(ctx context.Context) error {
	logging.Info().Int("notifiers", len(e.Notifiers())).Msg("alert engine started")

	<-ctx.Done()

	logging.Info().Msg("alert engine shutting down")
	if err := e.Close(); err != nil {
		logging.Error().Err(err).Msg("error during shutdown")
	}
	return ctx.Err()
}
