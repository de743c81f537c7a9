// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

// Package logging provides centralized zerolog-based structured logging.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("icao", "A1B2C3").Msg("new aircraft")
//	logging.Error().Err(err).Str("notifier", "lcd").Msg("notifier failed")
//
//	// Per-cycle correlation id
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Debug().Int("records", n).Msg("fetched batch")
//
// # Configuration
//
// Environment Variables (read by internal/config):
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// Logs go to stderr by default. Stdout belongs to the console list view when
// it is enabled.
//
// # Adapters
//
// Two third-party libraries want their own logger type:
//
//   - sutureslog needs *slog.Logger: use NewSlogLogger
//   - watermill needs watermill.LoggerAdapter: use NewWatermillLogger
//
// Both write through the global zerolog logger.
//
// Always terminate event chains with .Msg() or .Send().
package logging
