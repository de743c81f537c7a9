// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

/*
Package main is the entry point for the PiPlane server.

PiPlane polls a dump1090-fa decoder for the aircraft currently in radio
range, keeps a registry of every aircraft seen within the eviction window and
fans transitions out to alert sinks: the log, a terminal list, character LCD
and OLED panels, a sound chime, a webhook, browser websockets and a NATS
subject.

# Startup Order

 1. Configuration: defaults, config file, environment (koanf)
 2. Logging: zerolog, JSON or console, on stderr
 3. Registry and alert engine, with the log sink as primary notifier
 4. Optional embedded NATS broker and Watermill publisher
 5. Notifiers registered in a fixed order
 6. Ingest adapter and polling orchestrator
 7. HTTP API
 8. Supervisor tree until SIGINT or SIGTERM

# Supervisor Layers

	piplane
	├── ingest-layer      poller
	├── alerting-layer    alert-engine, websocket-hub, console, lcd, oled, nats-broker
	└── api-layer         http-server

# Configuration

Environment variables override the config file:

	AIRCRAFT_JSON=/run/dump1090-fa/aircraft.json
	POLL_INTERVAL=5s
	EVICTION_TIMEOUT=300s
	WEBHOOK_URL=https://hooks.example.com/piplane
	NATS_ENABLED=true NATS_EMBEDDED=true
	LOG_LEVEL=debug

When a config file is in use, changes to logging.level are applied without
a restart.

# Example Usage

	./piplane                              # defaults, reads /var/run/dump1090-fa
	CONFIG_PATH=/etc/piplane/config.yaml ./piplane
*/
package main
