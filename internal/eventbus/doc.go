// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

/*
Package eventbus publishes aircraft alerts to NATS so other services on the
network (home automation, loggers, a second display) can react to them.

Publishing goes through a Watermill NATS publisher (core NATS, JetStream
disabled: alerts are fire-and-forget and persistence is out of scope).
Subjects:

	{prefix}.new      first sighting of an aircraft, with enrichment
	{prefix}.expired  aircraft evicted from the tracking window

The default prefix is "piplane.aircraft". Each message carries a UUID which
Watermill sends as a header, plus icao, event_type and correlation_id
metadata.

For single-box installs an embedded nats-server can be started in-process;
external subscribers then connect to its client URL.
*/
package eventbus
