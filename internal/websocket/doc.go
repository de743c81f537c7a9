// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

/*
Package websocket pushes live aircraft events to browsers.

It uses gorilla/websocket with a hub-and-spoke layout:

	┌──────────┐
	│   Hub    │ ← Broadcasts to all clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│ Client1  │ Client2 │ Client3 │
	└──────────┴─────────┴─────────┘

Each client has a readPump (pings, disconnect detection) and a writePump
(JSON frames, keepalive pings). A client that cannot keep up with its send
buffer is disconnected rather than allowed to stall the hub.

Message Types:

  - snapshot: full tracked-aircraft list, sent once on connect
  - aircraft_new: an aircraft entered the tracking window
  - aircraft_update: a tracked aircraft reported again
  - aircraft_expired: an aircraft was evicted ({icao, last_seen})
  - ping / pong: application-level keepalive from the browser

Lifecycle:

The hub runs under the supervisor via RunWithContext. On cancellation every
client is closed, and Done() is closed so late readPump exits do not block
on Unregister.

Metrics: piplane_websocket_connections, piplane_websocket_messages_sent_total
and piplane_websocket_messages_dropped_total.
*/
package websocket
