// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package alert

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/metrics"
	"github.com/tomtom215/piplane/internal/models"
)

// job is one queued delivery. The correlation id of the originating cycle is
// carried so worker logs can be joined to it.
type job struct {
	event         models.TransitionEvent
	correlationID string
}

// NotifierStats counts deliveries for one notifier.
type NotifierStats struct {
	Name         string `json:"name"`
	Capabilities string `json:"capabilities"`
	Enabled      bool   `json:"enabled"`
	Primary      bool   `json:"primary"`
	Delivered    int64  `json:"delivered"`
	Failed       int64  `json:"failed"`
	TimedOut     int64  `json:"timed_out"`
	Dropped      int64  `json:"dropped"`
	QueueDepth   int    `json:"queue_depth"`
}

// guard runs handler calls with a deadline and remembers whether an abandoned
// call is still in flight.
type guard struct {
	name string
	busy atomic.Bool

	delivered atomic.Int64
	failed    atomic.Int64
	timedOut  atomic.Int64
	dropped   atomic.Int64
}

// call runs fn with a timeout, recovering panics. When the deadline passes
// the goroutine running fn is left behind and the guard stays busy until it
// returns.
func (g *guard) call(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrNotifierBusy
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %v", ErrNotifierPanic, r)
				}
			}()
			return fn(ctx)
		}()
		// Cleared before the result is published so the next call never
		// sees a finished handler as busy.
		g.busy.Store(false)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrNotifierTimeout, timeout)
		}
		return ctx.Err()
	}
}

// record updates counters, metrics and logs for one attempt.
func (g *guard) record(ev *models.TransitionEvent, correlationID string, err error, elapsed time.Duration) {
	kind := ev.Kind.String()
	switch {
	case err == nil:
		g.delivered.Add(1)
		metrics.RecordNotifierDispatch(g.name, kind, "success", elapsed)
		return
	case errors.Is(err, ErrNotifierBusy), errors.Is(err, ErrQueueFull):
		g.dropped.Add(1)
		metrics.RecordNotifierDispatch(g.name, kind, "dropped", 0)
	case errors.Is(err, ErrNotifierTimeout):
		g.timedOut.Add(1)
		metrics.RecordNotifierDispatch(g.name, kind, "timeout", elapsed)
	default:
		g.failed.Add(1)
		metrics.RecordNotifierDispatch(g.name, kind, "failure", elapsed)
	}

	logging.Error().
		Err(err).
		Str("notifier", g.name).
		Str("kind", kind).
		Str("icao", ev.ICAO).
		Str("correlation_id", correlationID).
		Msg("notifier failed")
}

func (g *guard) stats() NotifierStats {
	return NotifierStats{
		Name:      g.name,
		Delivered: g.delivered.Load(),
		Failed:    g.failed.Load(),
		TimedOut:  g.timedOut.Load(),
		Dropped:   g.dropped.Load(),
	}
}

// worker owns the queue of one registered notifier.
type worker struct {
	notifier Notifier
	caps     Capability
	guard    *guard
	queue    chan job
	stop     chan struct{}
	done     chan struct{}
}

func newWorker(n Notifier, queueSize int) *worker {
	return &worker{
		notifier: n,
		caps:     CapabilitiesOf(n),
		guard:    &guard{name: n.Name()},
		queue:    make(chan job, queueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *worker) run(ctx context.Context, timeout time.Duration, finished func()) {
	defer close(w.done)
	for {
		// Stop wins over a ready queue so nothing reaches a removed notifier.
		select {
		case <-w.stop:
			w.abandon(finished)
			return
		default:
		}

		select {
		case <-w.stop:
			w.abandon(finished)
			return
		case j := <-w.queue:
			metrics.NotifierQueueDepth.WithLabelValues(w.guard.name).Set(float64(len(w.queue)))
			jobCtx := ctx
			if j.correlationID != "" {
				jobCtx = logging.ContextWithCorrelationID(ctx, j.correlationID)
			}
			start := time.Now()
			err := w.guard.call(jobCtx, timeout, func(c context.Context) error {
				return deliver(c, w.notifier, &j.event)
			})
			w.guard.record(&j.event, j.correlationID, err, time.Since(start))
			finished()
		}
	}
}

// abandon discards whatever is still queued.
func (w *worker) abandon(finished func()) {
	for {
		select {
		case <-w.queue:
			finished()
		default:
			metrics.NotifierQueueDepth.WithLabelValues(w.guard.name).Set(0)
			return
		}
	}
}
