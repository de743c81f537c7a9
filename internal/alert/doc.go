// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

// Package alert fans registry transitions out to notification sinks.
//
// Architecture:
//
//	Registry.Merge/Prune -> []TransitionEvent -> Engine.Handle
//	                                               |
//	                 primary sink (inline) <-------+-------> per-notifier queue -> worker
//	                                                          (LCD, OLED, sound, webhook, ...)
//
// Notifiers declare what they handle by implementing one or more of
// NewAircraftHandler, UpdateHandler and ExpireHandler. The engine only
// depends on these interfaces.
//
// Delivery rules:
//   - NewAircraft goes to every NewAircraftHandler, at most once per identity
//     generation. The alert counts as delivered once the primary sink
//     succeeds; other sinks are attempted regardless of each other's outcome.
//   - Updated goes only to UpdateHandler (render-oriented sinks).
//   - Expired goes to ExpireHandler; others ignore it.
//
// Isolation: every notifier except the primary runs behind its own bounded
// queue and goroutine. A full queue drops the event for that notifier only. A
// call that exceeds the notifier timeout is abandoned; further events for
// that notifier are dropped until the abandoned call returns. Panics are
// recovered and reported as errors. Nothing a notifier does can block
// Handle for longer than the primary sink's timeout.
package alert
