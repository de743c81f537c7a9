// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package main

import (
	"errors"
	"io"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/piplane/internal/alert"
	"github.com/tomtom215/piplane/internal/config"
	"github.com/tomtom215/piplane/internal/enrich"
	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/notify"
	"github.com/tomtom215/piplane/internal/registry"
	"github.com/tomtom215/piplane/internal/supervisor/services"
)

// notifierDeps are the shared collaborators notifiers are built from.
type notifierDeps struct {
	registry *registry.Registry
	hub      notify.Broadcaster
	enricher enrich.Enricher
	nats     *NATSComponents
	console  io.Writer
	// input feeds console row selection; nil keeps the console read-only.
	input io.Reader
	// player overrides the sound backend; nil probes cfg.Sound.Player on PATH.
	player notify.Player
}

// registerNotifiers registers every configured sink with the engine in a
// fixed order and returns the services that drive their own refresh loops.
func registerNotifiers(cfg *config.Config, engine *alert.Engine, deps notifierDeps) ([]suture.Service, error) {
	var (
		runners []suture.Service
		errs    []error
	)
	register := func(n alert.Notifier) {
		if err := engine.Register(n); err != nil {
			errs = append(errs, err)
		}
	}

	if cfg.Display.ConsoleEnabled && deps.console != nil {
		view := notify.NewConsoleView(notify.ConsoleConfig{
			Refresh:     cfg.Display.ConsoleRefresh,
			MaxRows:     cfg.Display.ConsoleMaxRows,
			NewTagFor:   cfg.Display.NewTagDuration,
			Location:    cfg.Location(),
			ShowDetails: cfg.Display.ShowDetails,
		}, deps.console, deps.registry)
		if deps.input != nil {
			view.SetInput(deps.input)
		}
		register(view)
		runners = append(runners, services.NewRunnerService("console", view))
	}

	if cfg.Display.LCDEnabled {
		// No hardware driver is linked in; the virtual display keeps the
		// queue and formatting observable in logs and tests.
		lcd := notify.NewLCDNotifier(notify.LCDConfig{
			Columns:  cfg.Display.LCDColumns,
			Rows:     cfg.Display.LCDRows,
			Interval: cfg.Display.LCDInterval,
		}, notify.NewVirtualLCD(cfg.Display.LCDColumns, cfg.Display.LCDRows), deps.registry)
		register(lcd)
		runners = append(runners, services.NewRunnerService("lcd", lcd))
	}

	if cfg.Display.OLEDEnabled {
		oled := notify.NewOLEDNotifier(notify.OLEDConfig{
			Width:    cfg.Display.OLEDWidth,
			Height:   cfg.Display.OLEDHeight,
			Interval: cfg.Display.OLEDInterval,
		}, notify.NewVirtualPanel(), deps.registry)
		register(oled)
		runners = append(runners, services.NewRunnerService("oled", oled))
	}

	if cfg.Sound.Enabled {
		if sound := newSoundNotifier(&cfg.Sound, deps.player); sound != nil {
			register(sound)
		}
	}

	if cfg.Webhook.Enabled {
		register(notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:         cfg.Webhook.URL,
			Headers:     cfg.Webhook.Headers,
			MinInterval: cfg.Webhook.MinInterval,
			Timeout:     cfg.Webhook.Timeout,
		}, deps.enricher))
	}

	if deps.hub != nil {
		register(notify.NewWebSocketNotifier(deps.hub))
	}

	if n := deps.nats.Notifier(); n != nil {
		register(n)
	}

	return runners, errors.Join(errs...)
}

// newSoundNotifier returns nil when the player binary is missing so a
// headless install without mpg123 still starts.
func newSoundNotifier(cfg *config.SoundConfig, player notify.Player) *notify.SoundNotifier {
	if player == nil {
		exec := notify.ExecPlayer{Binary: cfg.Player, Timeout: notify.DefaultPlayTimeout}
		if err := exec.Available(); err != nil {
			logging.Warn().Err(err).Msg("Sound alerts disabled")
			return nil
		}
		player = exec
	}
	return notify.NewSoundNotifier(notify.SoundConfig{
		AudioFile: cfg.AudioFile,
		Volume:    cfg.Volume,
		Cooldown:  cfg.Cooldown,
		Player:    cfg.Player,
	}, player)
}
