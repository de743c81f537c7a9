// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package notify

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/piplane/internal/models"
	"github.com/tomtom215/piplane/internal/websocket"
)

// ErrBroadcastDropped means the hub's broadcast buffer was full.
var ErrBroadcastDropped = errors.New("websocket broadcast dropped")

// Broadcaster is the subset of websocket.Hub used here.
type Broadcaster interface {
	BroadcastJSON(messageType string, data interface{}) bool
}

// ExpiredMessage is the payload of aircraft_expired.
type ExpiredMessage struct {
	ICAO     string    `json:"icao"`
	LastSeen time.Time `json:"last_seen"`
}

// WebSocketNotifier forwards every transition to connected browsers.
type WebSocketNotifier struct {
	hub Broadcaster
}

// NewWebSocketNotifier creates a sink broadcasting through hub.
func NewWebSocketNotifier(hub Broadcaster) *WebSocketNotifier {
	return &WebSocketNotifier{hub: hub}
}

// Name implements alert.Notifier.
func (n *WebSocketNotifier) Name() string { return "websocket" }

// Enabled implements alert.Notifier.
func (n *WebSocketNotifier) Enabled() bool { return n.hub != nil }

// OnNew implements alert.NewAircraftHandler.
func (n *WebSocketNotifier) OnNew(_ context.Context, a models.TrackedAircraft) error {
	return n.send(websocket.MessageTypeAircraftNew, a)
}

// OnUpdate implements alert.UpdateHandler.
func (n *WebSocketNotifier) OnUpdate(_ context.Context, a models.TrackedAircraft) error {
	return n.send(websocket.MessageTypeAircraftUpdate, a)
}

// OnExpire implements alert.ExpireHandler.
func (n *WebSocketNotifier) OnExpire(_ context.Context, icao string, lastSeen time.Time) error {
	return n.send(websocket.MessageTypeAircraftExpired, ExpiredMessage{ICAO: icao, LastSeen: lastSeen})
}

func (n *WebSocketNotifier) send(messageType string, data interface{}) error {
	if !n.hub.BroadcastJSON(messageType, data) {
		return ErrBroadcastDropped
	}
	return nil
}
