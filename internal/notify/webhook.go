// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/piplane/internal/breaker"
	"github.com/tomtom215/piplane/internal/enrich"
	"github.com/tomtom215/piplane/internal/models"
)

// Webhook event types.
const (
	EventAircraftNew     = "aircraft_new"
	EventAircraftExpired = "aircraft_expired"
)

// WebhookConfig configures the generic webhook notifier.
type WebhookConfig struct {
	URL         string            `json:"url"`
	Headers     map[string]string `json:"headers,omitempty"` // Custom headers (e.g., auth)
	MinInterval time.Duration     `json:"min_interval"`
	Timeout     time.Duration     `json:"timeout"`
}

// WebhookPayload is the JSON body POSTed to the endpoint.
type WebhookPayload struct {
	ID         string                  `json:"id"`
	EventType  string                  `json:"event_type"`
	Timestamp  time.Time               `json:"timestamp"`
	Source     string                  `json:"source"`
	ICAO       string                  `json:"icao"`
	LastSeen   *time.Time              `json:"last_seen,omitempty"`
	Aircraft   *models.TrackedAircraft `json:"aircraft,omitempty"`
	Enrichment *enrich.AircraftInfo    `json:"enrichment,omitempty"`
}

// WebhookNotifier sends new and expired aircraft to an HTTP endpoint.
type WebhookNotifier struct {
	url      string
	headers  map[string]string
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *breaker.Breaker[struct{}]
	enricher enrich.Enricher
	now      func() time.Time

	mu      sync.RWMutex
	enabled bool
}

// NewWebhookNotifier creates a webhook sink. enricher may be nil.
func NewWebhookNotifier(cfg WebhookConfig, enricher enrich.Enricher) *WebhookNotifier {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if enricher == nil {
		enricher = enrich.CountryEnricher{}
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &WebhookNotifier{
		url:      cfg.URL,
		headers:  headers,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		breaker:  breaker.New[struct{}](breaker.DefaultSettings("webhook")),
		enricher: enricher,
		now:      time.Now,
		enabled:  cfg.URL != "",
	}
}

// Name implements alert.Notifier.
func (n *WebhookNotifier) Name() string { return "webhook" }

// Enabled implements alert.Notifier.
func (n *WebhookNotifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled && n.url != ""
}

// SetEnabled enables or disables the notifier.
func (n *WebhookNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// OnNew implements alert.NewAircraftHandler.
func (n *WebhookNotifier) OnNew(ctx context.Context, a models.TrackedAircraft) error {
	info := n.enricher.Enrich(ctx, a.ICAO)
	return n.send(ctx, &WebhookPayload{
		EventType:  EventAircraftNew,
		ICAO:       a.ICAO,
		Aircraft:   &a,
		Enrichment: &info,
	})
}

// OnExpire implements alert.ExpireHandler.
func (n *WebhookNotifier) OnExpire(ctx context.Context, icao string, lastSeen time.Time) error {
	return n.send(ctx, &WebhookPayload{
		EventType: EventAircraftExpired,
		ICAO:      icao,
		LastSeen:  &lastSeen,
	})
}

func (n *WebhookNotifier) send(ctx context.Context, payload *WebhookPayload) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook rate limit wait: %w", err)
	}

	payload.ID = uuid.NewString()
	payload.Timestamp = n.now().UTC()
	payload.Source = "piplane"

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	_, err = n.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, n.post(ctx, body)
	})
	return err
}

func (n *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range n.headers {
		req.Header.Set(key, value)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
