// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/piplane/internal/alert"
	"github.com/tomtom215/piplane/internal/enrich"
	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/models"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type published struct {
	topic string
	msg   *message.Message
}

// fakePublisher records messages instead of sending them.
type fakePublisher struct {
	mu     sync.Mutex
	sent   []published
	err    error
	closed bool
}

func (p *fakePublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	for _, m := range messages {
		p.sent = append(p.sent, published{topic: topic, msg: m})
	}
	return nil
}

func (p *fakePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePublisher) messages() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.sent...)
}

type staticEnricher struct{ info enrich.AircraftInfo }

func (s staticEnricher) Enrich(_ context.Context, icao string) enrich.AircraftInfo {
	out := s.info
	out.ICAO = icao
	return out
}

func testAircraft() models.TrackedAircraft {
	return models.TrackedAircraft{
		ICAO:       "4010EE",
		Callsign:   "BAW123",
		FirstSeen:  t0,
		LastSeen:   t0.Add(5 * time.Second),
		Generation: 3,
		Latest: models.AircraftSnapshot{
			ICAO:       "4010EE",
			Callsign:   models.Ptr("BAW123"),
			Altitude:   models.Ptr(36000.0),
			ObservedAt: t0.Add(5 * time.Second),
		},
	}
}

func TestNotifier_Capabilities(t *testing.T) {
	t.Parallel()

	n := NewNotifier(&fakePublisher{}, "", nil)
	if got, want := alert.CapabilitiesOf(n), alert.CapNew|alert.CapExpire; got != want {
		t.Errorf("capabilities = %v, want %v", got, want)
	}
	if n.Name() != "nats" {
		t.Errorf("Name() = %q", n.Name())
	}
}

func TestNotifier_OnNew(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	n := NewNotifier(pub, "test.aircraft", staticEnricher{info: enrich.AircraftInfo{
		Country:      "GB",
		Registration: "G-XWBA",
	}})
	n.now = func() time.Time { return t0.Add(time.Minute) }

	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-1")
	if err := n.OnNew(ctx, testAircraft()); err != nil {
		t.Fatalf("OnNew() error = %v", err)
	}

	sent := pub.messages()
	if len(sent) != 1 {
		t.Fatalf("published %d messages, want 1", len(sent))
	}
	if sent[0].topic != "test.aircraft.new" {
		t.Errorf("topic = %q", sent[0].topic)
	}
	msg := sent[0].msg
	if msg.UUID == "" {
		t.Error("message UUID is empty")
	}
	if got := msg.Metadata.Get("icao"); got != "4010EE" {
		t.Errorf("icao metadata = %q", got)
	}
	if got := msg.Metadata.Get("correlation_id"); got != "corr-1" {
		t.Errorf("correlation_id metadata = %q", got)
	}

	ev, err := DecodeEvent(msg.Payload)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	if ev.Type != EventNew || ev.ICAO != "4010EE" || ev.Callsign != "BAW123" {
		t.Errorf("event = %+v", ev)
	}
	if !ev.Timestamp.Equal(t0.Add(time.Minute)) {
		t.Errorf("timestamp = %v", ev.Timestamp)
	}
	if ev.Enrichment == nil || ev.Enrichment.Registration != "G-XWBA" || ev.Enrichment.ICAO != "4010EE" {
		t.Errorf("enrichment = %+v", ev.Enrichment)
	}
	if ev.Aircraft == nil || ev.Aircraft.Generation != 3 {
		t.Errorf("aircraft = %+v", ev.Aircraft)
	}
}

func TestNotifier_OnExpire(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	n := NewNotifier(pub, "", nil)

	lastSeen := t0.Add(30 * time.Second)
	if err := n.OnExpire(context.Background(), "A1B2C3", lastSeen); err != nil {
		t.Fatalf("OnExpire() error = %v", err)
	}

	sent := pub.messages()
	if len(sent) != 1 {
		t.Fatalf("published %d messages, want 1", len(sent))
	}
	if sent[0].topic != DefaultSubjectPrefix+".expired" {
		t.Errorf("topic = %q", sent[0].topic)
	}
	if sent[0].msg.Metadata.Get("correlation_id") != "" {
		t.Error("correlation_id set without one in context")
	}
	ev, err := DecodeEvent(sent[0].msg.Payload)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	if ev.Type != EventExpired || !ev.LastSeen.Equal(lastSeen) {
		t.Errorf("event = %+v", ev)
	}
	if ev.Aircraft != nil || ev.Enrichment != nil {
		t.Error("expired event should not carry aircraft details")
	}
}

func TestNotifier_PublishError(t *testing.T) {
	t.Parallel()

	errBroker := errors.New("broker down")
	n := NewNotifier(&fakePublisher{err: errBroker}, "", nil)

	err := n.OnExpire(context.Background(), "A1B2C3", t0)
	if !errors.Is(err, errBroker) {
		t.Errorf("OnExpire() error = %v, want %v", err, errBroker)
	}
}

func TestNotifier_Close(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	n := NewNotifier(pub, "", nil)

	if err := n.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if n.Enabled() {
		t.Error("Enabled() = true after Close")
	}
	if !pub.closed {
		t.Error("publisher not closed")
	}
	if err := n.OnNew(context.Background(), testAircraft()); !errors.Is(err, ErrClosed) {
		t.Errorf("OnNew() after Close error = %v, want ErrClosed", err)
	}
}

func TestSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, eventType, want string
	}{
		{"", EventNew, "piplane.aircraft.new"},
		{"home.adsb", EventExpired, "home.adsb.expired"},
	}
	for _, tt := range tests {
		if got := Subject(tt.prefix, tt.eventType); got != tt.want {
			t.Errorf("Subject(%q, %q) = %q, want %q", tt.prefix, tt.eventType, got, tt.want)
		}
	}
}

func TestDecodeEvent_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := DecodeEvent([]byte("{")); err == nil {
		t.Error("DecodeEvent() expected error for truncated payload")
	}
}
