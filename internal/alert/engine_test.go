// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/piplane/internal/models"
	"github.com/tomtom215/piplane/internal/registry"
)

// recorder captures calls; the wrapper types below choose which handler
// interfaces are exposed.
type recorder struct {
	name    string
	mu      sync.Mutex
	news    []string
	updates []string
	expires []string
	err     error
	panics  bool
	release chan struct{}
	off     bool
}

func newRecorder(name string) *recorder {
	return &recorder{name: name}
}

func (r *recorder) Name() string  { return r.name }
func (r *recorder) Enabled() bool { return !r.off }

func (r *recorder) hit(list *[]string, icao string) error {
	if r.release != nil {
		<-r.release
	}
	if r.panics {
		panic("display bus fault")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	*list = append(*list, icao)
	return r.err
}

func (r *recorder) counts() (news, updates, expires int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.news), len(r.updates), len(r.expires)
}

// alertSink handles only NewAircraft.
type alertSink struct{ *recorder }

func (s alertSink) OnNew(_ context.Context, a models.TrackedAircraft) error {
	return s.hit(&s.news, a.ICAO)
}

// renderSink handles every transition kind.
type renderSink struct{ *recorder }

func (s renderSink) OnNew(_ context.Context, a models.TrackedAircraft) error {
	return s.hit(&s.news, a.ICAO)
}

func (s renderSink) OnUpdate(_ context.Context, a models.TrackedAircraft) error {
	return s.hit(&s.updates, a.ICAO)
}

func (s renderSink) OnExpire(_ context.Context, icao string, _ time.Time) error {
	return s.hit(&s.expires, icao)
}

// logSink is a primary that also logs removals.
type logSink struct{ *recorder }

func (s logSink) OnNew(_ context.Context, a models.TrackedAircraft) error {
	return s.hit(&s.news, a.ICAO)
}

func (s logSink) OnExpire(_ context.Context, icao string, _ time.Time) error {
	return s.hit(&s.expires, icao)
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return epoch.Add(time.Duration(sec) * time.Second) }

func newEvent(icao string, gen uint64) models.TransitionEvent {
	a := models.TrackedAircraft{ICAO: icao, FirstSeen: epoch, LastSeen: epoch, IsNew: true, Generation: gen}
	return models.NewAircraftEvent(&a)
}

func flush(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func mustRegister(t *testing.T, e *Engine, n Notifier) {
	t.Helper()
	if err := e.Register(n); err != nil {
		t.Fatalf("register %s: %v", n.Name(), err)
	}
}

func TestEngine_SingleAlertPerGeneration(t *testing.T) {
	t.Parallel()

	reg := registry.New(registry.Config{})
	e := NewEngine(DefaultConfig(), reg)
	defer e.Close()

	primary := logSink{newRecorder("log")}
	e.SetPrimary(primary)
	display := renderSink{newRecorder("lcd")}
	mustRegister(t, e, display)

	s := models.AircraftSnapshot{ICAO: "A1B2C3", Callsign: models.Ptr("UAL123"), ObservedAt: at(0)}
	events := reg.Merge([]models.AircraftSnapshot{s}, at(0))

	// Overlapping batches: the same NewAircraft event handled three times.
	for i := 0; i < 3; i++ {
		e.Handle(context.Background(), events)
	}
	s.ObservedAt = at(5)
	e.Handle(context.Background(), reg.Merge([]models.AircraftSnapshot{s}, at(5)))
	flush(t, e)

	if n, _, _ := primary.counts(); n != 1 {
		t.Errorf("primary received %d NewAircraft alerts, want 1", n)
	}
	news, updates, _ := display.counts()
	if news != 1 || updates != 1 {
		t.Errorf("display got news=%d updates=%d, want 1/1", news, updates)
	}
	if a, _ := reg.Lookup("A1B2C3"); !a.Alerted {
		t.Error("expected alerted flag set in registry")
	}
}

func TestEngine_FailingNotifierIsolated(t *testing.T) {
	t.Parallel()

	reg := registry.New(registry.Config{})
	e := NewEngine(Config{NotifierTimeout: time.Second}, reg)
	defer e.Close()

	e.SetPrimary(logSink{newRecorder("log")})
	healthyA := alertSink{newRecorder("sound")}
	failing := alertSink{newRecorder("webhook")}
	failing.err = errors.New("connection refused")
	panicking := alertSink{newRecorder("oled")}
	panicking.panics = true
	healthyB := renderSink{newRecorder("console")}

	for _, n := range []Notifier{failing, healthyA, panicking, healthyB} {
		mustRegister(t, e, n)
	}

	events := reg.Merge([]models.AircraftSnapshot{{ICAO: "A1B2C3", ObservedAt: at(0)}}, at(0))
	e.Handle(context.Background(), events)
	flush(t, e)

	if n, _, _ := healthyA.counts(); n != 1 {
		t.Errorf("healthy sink A got %d alerts, want 1", n)
	}
	if n, _, _ := healthyB.counts(); n != 1 {
		t.Errorf("healthy sink B got %d alerts, want 1", n)
	}
	if alerted, tracked := reg.Alerted("A1B2C3", events[0].Aircraft.Generation); !alerted || !tracked {
		t.Error("alerted flag must be set despite failing notifiers")
	}

	stats := map[string]NotifierStats{}
	for _, s := range e.Stats() {
		stats[s.Name] = s
	}
	if stats["webhook"].Failed != 1 {
		t.Errorf("expected webhook failure counted, got %+v", stats["webhook"])
	}
	if stats["oled"].Failed != 1 {
		t.Errorf("expected recovered panic counted as failure, got %+v", stats["oled"])
	}
	if !stats["log"].Primary || stats["log"].Delivered != 1 {
		t.Errorf("unexpected primary stats %+v", stats["log"])
	}
}

func TestEngine_UpdatedOnlyToRenderers(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig(), nil)
	defer e.Close()

	alertOnly := alertSink{newRecorder("sound")}
	render := renderSink{newRecorder("console")}
	mustRegister(t, e, alertOnly)
	mustRegister(t, e, render)

	a := models.TrackedAircraft{ICAO: "ABCDEF", Generation: 1}
	e.Handle(context.Background(), []models.TransitionEvent{
		models.UpdatedEvent(&a),
		models.UpdatedEvent(&a),
		models.ExpiredEvent(&a),
	})
	flush(t, e)

	if n, u, x := alertOnly.counts(); n+u+x != 0 {
		t.Errorf("alert-only sink received %d/%d/%d calls", n, u, x)
	}
	if _, u, x := render.counts(); u != 2 || x != 1 {
		t.Errorf("render sink got updates=%d expires=%d, want 2/1", u, x)
	}
}

func TestEngine_ReentryAfterExpiryAlertsAgain(t *testing.T) {
	t.Parallel()

	reg := registry.New(registry.Config{})
	e := NewEngine(DefaultConfig(), reg)
	defer e.Close()

	primary := logSink{newRecorder("log")}
	e.SetPrimary(primary)

	e.Handle(context.Background(), reg.Merge([]models.AircraftSnapshot{{ICAO: "A1B2C3", ObservedAt: at(0)}}, at(0)))
	e.Handle(context.Background(), reg.Merge([]models.AircraftSnapshot{{ICAO: "A1B2C3", ObservedAt: at(5)}}, at(5)))
	e.Handle(context.Background(), reg.Prune(at(310), 300*time.Second))
	e.Handle(context.Background(), reg.Merge([]models.AircraftSnapshot{{ICAO: "A1B2C3", ObservedAt: at(320)}}, at(320)))

	news, _, expires := primary.counts()
	if news != 2 {
		t.Errorf("expected 2 NewAircraft alerts across generations, got %d", news)
	}
	if expires != 1 {
		t.Errorf("expected primary to log 1 removal, got %d", expires)
	}
}

func TestEngine_PrimaryFailureRetriesNextHandle(t *testing.T) {
	t.Parallel()

	reg := registry.New(registry.Config{})
	e := NewEngine(DefaultConfig(), reg)
	defer e.Close()

	primary := alertSink{newRecorder("log")}
	primary.err = errors.New("disk full")
	e.SetPrimary(primary)
	sound := alertSink{newRecorder("sound")}
	mustRegister(t, e, sound)

	events := reg.Merge([]models.AircraftSnapshot{{ICAO: "ABC123", ObservedAt: at(0)}}, at(0))
	e.Handle(context.Background(), events)
	if a, _ := reg.Lookup("ABC123"); a.Alerted {
		t.Fatal("alert must not be marked when the primary sink fails")
	}

	primary.mu.Lock()
	primary.err = nil
	primary.mu.Unlock()

	e.Handle(context.Background(), events)
	e.Handle(context.Background(), events)
	if n, _, _ := primary.counts(); n != 2 {
		t.Errorf("expected one failed and one successful attempt, got %d calls", n)
	}
	if a, _ := reg.Lookup("ABC123"); !a.Alerted {
		t.Error("expected alerted after successful retry")
	}

	flush(t, e)
	if n, _, _ := sound.counts(); n != 1 {
		t.Errorf("secondary notifier got %d alerts for one generation, want 1", n)
	}
}

func TestEngine_ReentryAfterPrimaryFailureReachesWorkersAgain(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig(), nil)
	defer e.Close()

	primary := alertSink{newRecorder("log")}
	primary.err = errors.New("disk full")
	e.SetPrimary(primary)
	sound := alertSink{newRecorder("sound")}
	mustRegister(t, e, sound)

	first := newEvent("ABC123", 1)
	e.Handle(context.Background(), []models.TransitionEvent{first, first})

	gone := first
	gone.Kind = models.TransitionExpired
	e.Handle(context.Background(), []models.TransitionEvent{gone})
	e.Handle(context.Background(), []models.TransitionEvent{newEvent("ABC123", 2)})
	flush(t, e)

	if n, _, _ := sound.counts(); n != 2 {
		t.Errorf("expected one alert per generation, got %d", n)
	}
}

func TestEngine_StuckNotifierDoesNotBlockHandle(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{NotifierTimeout: 50 * time.Millisecond, ShutdownGrace: 100 * time.Millisecond}, nil)
	defer e.Close()

	stuck := alertSink{newRecorder("lcd")}
	stuck.release = make(chan struct{})
	defer close(stuck.release)
	healthy := alertSink{newRecorder("sound")}
	mustRegister(t, e, stuck)
	mustRegister(t, e, healthy)

	start := time.Now()
	for i := 0; i < 10; i++ {
		e.Handle(context.Background(), []models.TransitionEvent{newEvent(fmt.Sprintf("AC%04d", i), 1)})
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("Handle blocked on a stuck notifier for %v", elapsed)
	}
	flush(t, e)

	if n, _, _ := healthy.counts(); n != 10 {
		t.Errorf("healthy sink got %d alerts, want 10", n)
	}
	for _, s := range e.Stats() {
		if s.Name != "lcd" {
			continue
		}
		if s.TimedOut != 1 || s.Dropped != 9 {
			t.Errorf("expected 1 timeout and 9 drops for stuck sink, got %+v", s)
		}
	}
}

func TestEngine_QueueFullDrops(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{QueueSize: 2, NotifierTimeout: time.Second}, nil)
	defer e.Close()

	slow := alertSink{newRecorder("webhook")}
	slow.release = make(chan struct{})
	mustRegister(t, e, slow)

	var events []models.TransitionEvent
	for i := 0; i < 10; i++ {
		events = append(events, newEvent(fmt.Sprintf("Q%05d", i), 1))
	}
	e.Handle(context.Background(), events)
	close(slow.release)
	flush(t, e)

	n, _, _ := slow.counts()
	var dropped int64
	for _, s := range e.Stats() {
		dropped = s.Dropped
	}
	if int64(n)+dropped != 10 {
		t.Errorf("delivered %d + dropped %d != 10", n, dropped)
	}
	if dropped < 7 {
		t.Errorf("expected at least 7 drops with queue size 2, got %d", dropped)
	}
}

func TestEngine_DisabledNotifierSkipped(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig(), nil)
	defer e.Close()

	off := alertSink{newRecorder("sound")}
	off.off = true
	mustRegister(t, e, off)

	e.Handle(context.Background(), []models.TransitionEvent{newEvent("ABCDEF", 1)})
	flush(t, e)
	if n, _, _ := off.counts(); n != 0 {
		t.Errorf("disabled notifier received %d events", n)
	}
}

func TestEngine_RegisterUnregister(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig(), nil)
	defer e.Close()

	a := alertSink{newRecorder("a")}
	b := renderSink{newRecorder("b")}
	c := alertSink{newRecorder("c")}
	for _, n := range []Notifier{a, b, c} {
		mustRegister(t, e, n)
	}
	if err := e.Register(alertSink{newRecorder("b")}); !errors.Is(err, ErrDuplicateNotifier) {
		t.Errorf("expected ErrDuplicateNotifier, got %v", err)
	}

	if !e.Unregister(b) {
		t.Fatal("expected b to be unregistered")
	}
	if e.Unregister(b) {
		t.Error("second Unregister must report false")
	}

	got := e.Notifiers()
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("expected dispatch order [a c], got %v", got)
	}

	e.Handle(context.Background(), []models.TransitionEvent{newEvent("ABCDEF", 1)})
	flush(t, e)
	if n, _, _ := b.counts(); n != 0 {
		t.Error("unregistered notifier still receives events")
	}
}

func TestEngine_UnregisterAbandonsQueuedEvents(t *testing.T) {
	t.Parallel()

	// The worker picks between stop and a ready queue; repeat so a
	// regression shows up reliably.
	for trial := 0; trial < 20; trial++ {
		e := NewEngine(Config{NotifierTimeout: 5 * time.Second, ShutdownGrace: time.Second}, nil)

		slow := alertSink{newRecorder("webhook")}
		slow.release = make(chan struct{})
		mustRegister(t, e, slow)

		var events []models.TransitionEvent
		for i := 0; i < 5; i++ {
			events = append(events, newEvent(fmt.Sprintf("U%05d", i), 1))
		}
		e.Handle(context.Background(), events)
		waitQueueDepth(t, e, "webhook", 4)

		if !e.Unregister(slow) {
			t.Fatal("expected webhook to be unregistered")
		}
		close(slow.release)
		flush(t, e)

		if n, _, _ := slow.counts(); n > 1 {
			t.Fatalf("trial %d: %d events delivered after Unregister, want at most the in-flight one", trial, n)
		}
		e.Close()
	}
}

// waitQueueDepth waits until the named worker has taken its first job and
// left depth events queued behind it.
func waitQueueDepth(t *testing.T, e *Engine, name string, depth int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, s := range e.Stats() {
			if s.Name == name && s.QueueDepth == depth {
				return
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("%s never reached queue depth %d", name, depth)
}

func TestEngine_CloseAndRunWithContext(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{ShutdownGrace: 200 * time.Millisecond}, nil)
	sink := alertSink{newRecorder("sound")}
	mustRegister(t, e, sink)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- e.RunWithContext(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunWithContext did not return after cancel")
	}

	if err := e.Register(alertSink{newRecorder("late")}); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("expected ErrEngineClosed, got %v", err)
	}
	e.Handle(context.Background(), []models.TransitionEvent{newEvent("ABCDEF", 1)})
	if n, _, _ := sink.counts(); n != 0 {
		t.Error("closed engine dispatched an event")
	}
}

func TestCapabilitiesOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    Notifier
		want string
	}{
		{"alert only", alertSink{newRecorder("x")}, "new"},
		{"renderer", renderSink{newRecorder("x")}, "new|update|expire"},
		{"log", logSink{newRecorder("x")}, "new|expire"},
		{"bare", newRecorder("x"), "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CapabilitiesOf(tt.n).String(); got != tt.want {
				t.Errorf("CapabilitiesOf() = %s, want %s", got, tt.want)
			}
		})
	}
}
