// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/piplane/internal/logging"
)

// ServerConfig configures the embedded broker.
type ServerConfig struct {
	Host string
	// Port -1 picks a free port.
	Port int
	// ReadyTimeout bounds startup.
	ReadyTimeout time.Duration
}

// DefaultServerConfig listens on the standard NATS port on localhost.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         4222,
		ReadyTimeout: 30 * time.Second,
	}
}

// EmbeddedServer is an in-process nats-server for single-box installs.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// NewEmbeddedServer creates and starts the broker, waiting until it accepts
// connections.
func NewEmbeddedServer(cfg ServerConfig) (*EmbeddedServer, error) {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 30 * time.Second
	}

	opts := &server.Options{
		ServerName: "piplane",
		Host:       cfg.Host,
		Port:       cfg.Port,
		JetStream:  false,
		MaxPayload: 1024 * 1024,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	ns.SetLogger(&natsLogger{}, false, false)

	go ns.Start()

	if !ns.ReadyForConnections(cfg.ReadyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within %s", cfg.ReadyTimeout)
	}

	logging.Info().Str("url", ns.ClientURL()).Msg("embedded NATS server started")
	return &EmbeddedServer{server: ns, clientURL: ns.ClientURL()}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// IsRunning returns server health status.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// Shutdown stops the server, giving up waiting when ctx ends.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// natsLogger routes nats-server logs into zerolog.
type natsLogger struct{}

func (natsLogger) Noticef(format string, v ...interface{}) {
	logging.Debug().Str("component", "nats-server").Msgf(format, v...)
}

func (natsLogger) Warnf(format string, v ...interface{}) {
	logging.Warn().Str("component", "nats-server").Msgf(format, v...)
}

func (natsLogger) Fatalf(format string, v ...interface{}) {
	logging.Error().Str("component", "nats-server").Msgf(format, v...)
}

func (natsLogger) Errorf(format string, v ...interface{}) {
	logging.Error().Str("component", "nats-server").Msgf(format, v...)
}

func (natsLogger) Debugf(format string, v ...interface{}) {
	logging.Debug().Str("component", "nats-server").Msgf(format, v...)
}

func (natsLogger) Tracef(format string, v ...interface{}) {
	logging.Debug().Str("component", "nats-server").Msgf(format, v...)
}
