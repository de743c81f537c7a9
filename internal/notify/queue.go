// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package notify

import (
	"sync"

	"github.com/tomtom215/piplane/internal/models"
)

// Tracker resolves the current state of an aircraft.
type Tracker interface {
	Lookup(icao string) (models.TrackedAircraft, bool)
}

// displayQueue is a FIFO of aircraft waiting for a slow display, at most one
// entry per icao.
type displayQueue struct {
	mu    sync.Mutex
	items []string
	set   map[string]struct{}
}

func newDisplayQueue() *displayQueue {
	return &displayQueue{set: make(map[string]struct{})}
}

// push appends icao unless it is already queued.
func (q *displayQueue) push(icao string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.set[icao]; ok {
		return false
	}
	q.set[icao] = struct{}{}
	q.items = append(q.items, icao)
	return true
}

// remove drops icao from the queue.
func (q *displayQueue) remove(icao string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.set[icao]; !ok {
		return false
	}
	delete(q.set, icao)
	for i, v := range q.items {
		if v == icao {
			q.items = append(q.items[:i], q.items[i+1:]...)
			break
		}
	}
	return true
}

func (q *displayQueue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", false
	}
	icao := q.items[0]
	q.items = q.items[1:]
	delete(q.set, icao)
	return icao, true
}

func (q *displayQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// next pops entries until one is still tracked. Evicted aircraft that were
// never shown are skipped.
func (q *displayQueue) next(tracker Tracker) (models.TrackedAircraft, bool) {
	for {
		icao, ok := q.pop()
		if !ok {
			return models.TrackedAircraft{}, false
		}
		if a, ok := tracker.Lookup(icao); ok {
			return a, true
		}
	}
}
