// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package alert

import "errors"

var (
	// ErrNotifierTimeout is reported when a handler exceeds the notifier timeout.
	ErrNotifierTimeout = errors.New("notifier timed out")

	// ErrNotifierBusy is reported when an event is dropped because an earlier
	// timed-out call to the same notifier has not returned yet.
	ErrNotifierBusy = errors.New("notifier still busy with abandoned call")

	// ErrNotifierPanic wraps a recovered panic.
	ErrNotifierPanic = errors.New("notifier panicked")

	// ErrQueueFull is reported when a notifier's queue cannot accept an event.
	ErrQueueFull = errors.New("notifier queue full")

	// ErrDuplicateNotifier is returned by Register for a name already in use.
	ErrDuplicateNotifier = errors.New("notifier already registered")

	// ErrEngineClosed is returned by Register after shutdown.
	ErrEngineClosed = errors.New("alert engine closed")
)
