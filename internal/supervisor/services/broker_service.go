// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"
)

// ErrBrokerStopped is returned when the broker dies on its own.
var ErrBrokerStopped = errors.New("embedded broker stopped unexpectedly")

// Broker is an in-process message broker that is already running.
type Broker interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// BrokerService owns the shutdown of an embedded broker. The broker is
// started before the tree so publishers can connect during wiring; if it
// later dies the service is removed rather than restarted.
type BrokerService struct {
	broker          Broker
	shutdownTimeout time.Duration
	checkInterval   time.Duration
	name            string
}

// NewBrokerService wraps broker.
func NewBrokerService(broker Broker, shutdownTimeout time.Duration) *BrokerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &BrokerService{
		broker:          broker,
		shutdownTimeout: shutdownTimeout,
		checkInterval:   5 * time.Second,
		name:            "nats-broker",
	}
}

// Serve implements suture.Service.
func (s *BrokerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.shutdown(); err != nil {
				return err
			}
			return ctx.Err()
		case <-ticker.C:
			if !s.broker.IsRunning() {
				return fmt.Errorf("%w: %w", ErrBrokerStopped, suture.ErrDoNotRestart)
			}
		}
	}
}

// shutdown uses a fresh context: the serve context is already canceled.
func (s *BrokerService) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.broker.Shutdown(ctx); err != nil {
		return fmt.Errorf("broker shutdown failed: %w", err)
	}
	return nil
}

// String implements fmt.Stringer.
func (s *BrokerService) String() string {
	return s.name
}
