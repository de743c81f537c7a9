// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/piplane/internal/alert"
	"github.com/tomtom215/piplane/internal/api"
	"github.com/tomtom215/piplane/internal/config"
	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/notify"
	"github.com/tomtom215/piplane/internal/orchestrator"
	"github.com/tomtom215/piplane/internal/registry"
	"github.com/tomtom215/piplane/internal/supervisor"
	"github.com/tomtom215/piplane/internal/supervisor/services"
	ws "github.com/tomtom215/piplane/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().
		Str("config_file", cfg.Path).
		Str("source", cfg.Ingest.Source).
		Dur("poll_interval", cfg.Ingest.PollInterval).
		Dur("eviction_timeout", cfg.Registry.EvictionTimeout).
		Msg("Starting PiPlane with supervisor tree")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	reg := registry.New(registry.Config{PositionHistory: cfg.Registry.PositionHistory})

	enricher := newEnricher(&cfg.Enrichment)

	engine := alert.NewEngine(alert.Config{
		QueueSize:       cfg.Alerts.QueueSize,
		NotifierTimeout: cfg.Alerts.NotifierTimeout,
		ShutdownGrace:   cfg.Alerts.ShutdownGrace,
	}, reg)
	logSink := notify.NewLogNotifier(enricher)
	engine.SetPrimary(logSink)

	hub := ws.NewHub()

	natsComponents, err := InitNATS(&cfg.NATS, enricher)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize NATS")
	}
	defer natsComponents.Shutdown()

	runners, err := registerNotifiers(cfg, engine, notifierDeps{
		registry: reg,
		hub:      hub,
		enricher: enricher,
		nats:     natsComponents,
		console:  os.Stdout,
		input:    os.Stdin,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to register notifiers")
	}
	logging.Info().Strs("notifiers", engine.Notifiers()).Msg("Alert sinks registered")

	adapter := newAdapter(&cfg.Ingest)
	poller := orchestrator.New(orchestratorConfig(cfg), adapter, reg, engine)

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.AddIngestService(services.NewRunnerService("poller", poller))

	tree.AddAlertingService(services.NewRunnerService("alert-engine", engine))
	tree.AddAlertingService(services.NewRunnerService("websocket-hub", hub))
	for _, svc := range runners {
		tree.AddAlertingService(svc)
	}
	AddNATSToSupervisor(tree, natsComponents, cfg.Supervisor.ShutdownTimeout)

	if cfg.Server.Enabled {
		server := newHTTPServer(cfg, api.Options{
			Store:     reg,
			Poller:    poller,
			Notifiers: engine,
		}, hub)
		tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")
	}

	watchLogLevel(cfg.Path)

	// === START SUPERVISOR TREE ===

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	if err := engine.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing alert engine")
	}
	logSink.Wait()

	logging.Info().
		Int("tracked", reg.Len()).
		Msg("PiPlane stopped gracefully")
}

// watchLogLevel applies logging.level changes from the config file without
// a restart. Other settings need one.
func watchLogLevel(path string) {
	if path == "" {
		return
	}
	err := config.WatchLogLevel(path, func(level string) {
		if level == logging.GetLevel().String() {
			return
		}
		logging.SetLevelString(level)
		logging.Info().Str("level", level).Msg("Log level reloaded")
	}, func(err error) {
		logging.Warn().Err(err).Msg("Ignoring invalid config reload")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
	}
}
