// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

/*
Package supervisor provides process supervision for PiPlane using suture v4.

Services are grouped into three layers so a failure in one does not restart
the others:

	root ("piplane")
	├── ingest-layer
	│   └── poller
	├── alerting-layer
	│   ├── alert-engine
	│   ├── websocket-hub
	│   ├── console, lcd, oled (when enabled)
	│   └── nats-broker (when nats.embedded)
	└── api-layer
	    └── http-server

A crashed display loop restarts on its own with backoff while the poller keeps
feeding the registry. Supervisor events are logged through sutureslog into the
zerolog-backed slog handler from internal/logging.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Supervisor.ShutdownTimeout,
	})
	tree.AddIngestService(services.NewRunnerService("poller", poller))
	tree.AddAlertingService(services.NewRunnerService("alert-engine", engine))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Supervisor.ShutdownTimeout))
	errCh := tree.ServeBackground(ctx)

Adapters for the individual components live in the services subpackage.
*/
package supervisor
