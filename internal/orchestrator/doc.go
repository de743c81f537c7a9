// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

/*
Package orchestrator drives the registry from the ingestion adapter.

A Poller is the single writer of the aircraft registry. On every poll tick it
moves through

	Idle -> Polling -> Pruning -> Idle

Polling fetches one document from the adapter (bounded by AdapterTimeout),
merges it into the registry and hands the transitions to the alert engine.
A failed fetch (timeout, missing file, bad JSON) is logged and the cycle is
skipped; the registry is left exactly as it was.

Pruning runs after polling whenever PruneInterval has elapsed since the last
sweep, and also when the fetch failed, so aircraft still age out while the
decoder is down. Expired transitions go to the alert engine as well.

Readers (displays, the API) never go through the Poller: they read the
registry's published snapshot on their own cadence.

Every cycle carries a correlation id in its context so log lines from the
registry, engine and notifiers can be joined.
*/
package orchestrator
