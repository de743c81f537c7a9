// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/piplane/internal/config"
	"github.com/tomtom215/piplane/internal/enrich"
	"github.com/tomtom215/piplane/internal/eventbus"
	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/supervisor"
	"github.com/tomtom215/piplane/internal/supervisor/services"
)

// NATSComponents holds the event bus pieces. A nil *NATSComponents means
// NATS is disabled; every method is safe to call on it.
type NATSComponents struct {
	server    *eventbus.EmbeddedServer
	publisher message.Publisher
	notifier  *eventbus.Notifier
}

// InitNATS starts the embedded broker when configured and connects the
// publisher. The broker must be accepting connections before the publisher
// dials it, so it is started here rather than by the supervisor.
func InitNATS(cfg *config.NATSConfig, enricher enrich.Enricher) (*NATSComponents, error) {
	if !cfg.Enabled {
		logging.Info().Msg("NATS event bus disabled")
		return nil, nil
	}

	c := &NATSComponents{}
	url := cfg.URL

	if cfg.Embedded {
		srvCfg := eventbus.DefaultServerConfig()
		srvCfg.Host = cfg.EmbeddedHost
		srvCfg.Port = cfg.EmbeddedPort

		srv, err := eventbus.NewEmbeddedServer(srvCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		c.server = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	publisher, err := eventbus.NewPublisher(eventbus.DefaultPublisherConfig(url), logging.NewWatermillLogger())
	if err != nil {
		c.shutdownServer()
		return nil, fmt.Errorf("connect NATS publisher: %w", err)
	}
	c.publisher = publisher
	c.notifier = eventbus.NewNotifier(publisher, cfg.SubjectPrefix, enricher)

	logging.Info().
		Str("url", url).
		Str("subject_prefix", cfg.SubjectPrefix).
		Bool("embedded", cfg.Embedded).
		Msg("NATS event bus initialized")
	return c, nil
}

// Notifier returns the alert sink, or nil when NATS is disabled.
func (c *NATSComponents) Notifier() *eventbus.Notifier {
	if c == nil {
		return nil
	}
	return c.notifier
}

// IsRunning reports whether the publisher is usable.
func (c *NATSComponents) IsRunning() bool {
	return c != nil && c.notifier != nil && c.notifier.Enabled()
}

// Shutdown closes the notifier and the publisher. The embedded broker is
// owned by its supervisor service once AddNATSToSupervisor has run.
func (c *NATSComponents) Shutdown() {
	if c == nil {
		return
	}
	if c.notifier != nil {
		if err := c.notifier.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing NATS notifier")
		}
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing NATS publisher")
		}
	}
	logging.Info().Msg("NATS event bus shut down")
}

func (c *NATSComponents) shutdownServer() {
	if c.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.server.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
	}
}

// AddNATSToSupervisor hands the embedded broker to the alerting layer so it
// is health-checked and stopped with the rest of the tree.
func AddNATSToSupervisor(tree *supervisor.SupervisorTree, c *NATSComponents, shutdownTimeout time.Duration) {
	if c == nil || c.server == nil {
		return
	}
	tree.AddAlertingService(services.NewBrokerService(c.server, shutdownTimeout))
	logging.Info().Msg("Embedded NATS server added to supervisor tree")
}
