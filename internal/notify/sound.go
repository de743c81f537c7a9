// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package notify

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/models"
)

// mpg123 -f takes a linear scale factor; 32768 is unity gain.
const mpg123UnityScale = 32768

// DefaultPlayTimeout bounds one clip.
const DefaultPlayTimeout = 10 * time.Second

// Player plays an audio file at volume 0..100.
type Player interface {
	Play(ctx context.Context, file string, volume int) error
}

// ExecPlayer shells out to mpg123 (or a compatible binary).
type ExecPlayer struct {
	Binary  string
	Timeout time.Duration
}

// Available reports whether the binary is on PATH.
func (p ExecPlayer) Available() error {
	if _, err := exec.LookPath(p.Binary); err != nil {
		return fmt.Errorf("audio player %q not found: %w", p.Binary, err)
	}
	return nil
}

// Play implements Player. It blocks until playback ends or the timeout hits.
func (p ExecPlayer) Play(ctx context.Context, file string, volume int) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultPlayTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // binary and file come from operator configuration
	cmd := exec.CommandContext(ctx, p.Binary, "-q", "-f", strconv.Itoa(ScaleVolume(volume)), file)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", p.Binary, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ScaleVolume maps a 0..100 percentage to an mpg123 scale factor.
func ScaleVolume(volume int) int {
	switch {
	case volume < 0:
		volume = 0
	case volume > 100:
		volume = 100
	}
	return volume * mpg123UnityScale / 100
}

// SoundConfig configures SoundNotifier.
type SoundConfig struct {
	AudioFile string
	Volume    int
	Cooldown  time.Duration
	Player    string
}

// SoundNotifier plays a clip for each new aircraft. Bursts are collapsed by
// the cooldown: one clip per Cooldown regardless of how many aircraft appear.
type SoundNotifier struct {
	cfg     SoundConfig
	player  Player
	limiter *rate.Limiter

	wg sync.WaitGroup
}

// NewSoundNotifier creates a sound sink. A nil player uses ExecPlayer with
// cfg.Player.
func NewSoundNotifier(cfg SoundConfig, player Player) *SoundNotifier {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Second
	}
	if cfg.Player == "" {
		cfg.Player = "mpg123"
	}
	if player == nil {
		player = ExecPlayer{Binary: cfg.Player, Timeout: DefaultPlayTimeout}
	}
	return &SoundNotifier{
		cfg:     cfg,
		player:  player,
		limiter: rate.NewLimiter(rate.Every(cfg.Cooldown), 1),
	}
}

// Name implements alert.Notifier.
func (n *SoundNotifier) Name() string { return "sound" }

// Enabled implements alert.Notifier.
func (n *SoundNotifier) Enabled() bool { return n.cfg.AudioFile != "" }

// OnNew implements alert.NewAircraftHandler. Playback runs in the
// background so a long clip does not hold the notifier's queue.
func (n *SoundNotifier) OnNew(ctx context.Context, a models.TrackedAircraft) error {
	if !n.limiter.Allow() {
		logging.Ctx(ctx).Debug().Str("icao", a.ICAO).Msg("sound alert suppressed by cooldown")
		return nil
	}
	if _, err := os.Stat(n.cfg.AudioFile); err != nil {
		return fmt.Errorf("audio file: %w", err)
	}

	playCtx := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.player.Play(playCtx, n.cfg.AudioFile, n.cfg.Volume); err != nil {
			logging.Ctx(playCtx).Warn().Err(err).Str("icao", a.ICAO).Msg("sound alert playback failed")
		}
	}()
	return nil
}

// Wait blocks until in-flight clips have finished.
func (n *SoundNotifier) Wait() {
	n.wg.Wait()
}
