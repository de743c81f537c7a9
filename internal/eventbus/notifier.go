// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/piplane/internal/breaker"
	"github.com/tomtom215/piplane/internal/enrich"
	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/metrics"
	"github.com/tomtom215/piplane/internal/models"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("event bus publisher closed")

// Notifier publishes new and expired aircraft. It implements
// alert.NewAircraftHandler and alert.ExpireHandler.
type Notifier struct {
	publisher message.Publisher
	prefix    string
	enricher  enrich.Enricher
	breaker   *breaker.Breaker[struct{}]
	now       func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewNotifier wraps publisher. enricher may be nil.
func NewNotifier(publisher message.Publisher, prefix string, enricher enrich.Enricher) *Notifier {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if enricher == nil {
		enricher = enrich.CountryEnricher{}
	}
	return &Notifier{
		publisher: publisher,
		prefix:    prefix,
		enricher:  enricher,
		breaker:   breaker.New[struct{}](breaker.DefaultSettings("nats-publish")),
		now:       time.Now,
	}
}

// Name implements alert.Notifier.
func (n *Notifier) Name() string { return "nats" }

// Enabled implements alert.Notifier.
func (n *Notifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return !n.closed
}

// OnNew implements alert.NewAircraftHandler.
func (n *Notifier) OnNew(ctx context.Context, a models.TrackedAircraft) error {
	info := n.enricher.Enrich(ctx, a.ICAO)
	return n.publish(ctx, &AircraftEvent{
		Type:       EventNew,
		ICAO:       a.ICAO,
		Callsign:   a.Callsign,
		LastSeen:   a.LastSeen,
		Aircraft:   &a,
		Enrichment: &info,
	})
}

// OnExpire implements alert.ExpireHandler.
func (n *Notifier) OnExpire(ctx context.Context, icao string, lastSeen time.Time) error {
	return n.publish(ctx, &AircraftEvent{
		Type:     EventExpired,
		ICAO:     icao,
		LastSeen: lastSeen,
	})
}

func (n *Notifier) publish(ctx context.Context, ev *AircraftEvent) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrClosed
	}

	ev.Timestamp = n.now().UTC()
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal aircraft event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set("icao", ev.ICAO)
	msg.Metadata.Set("event_type", ev.Type)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}
	msg.SetContext(ctx)

	topic := Subject(n.prefix, ev.Type)
	_, err = n.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, n.publisher.Publish(topic, msg)
	})
	metrics.RecordEventPublished(topic, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close closes the underlying publisher. Further events are rejected.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	return n.publisher.Close()
}
