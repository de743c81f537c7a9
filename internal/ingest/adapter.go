// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/tomtom215/piplane/internal/breaker"
	"github.com/tomtom215/piplane/internal/models"
)

var (
	// ErrSourceUnavailable means the decoder output could not be read.
	ErrSourceUnavailable = errors.New("aircraft source unavailable")

	// ErrMalformedPayload means the decoder output could not be parsed.
	ErrMalformedPayload = errors.New("malformed aircraft payload")
)

// maxDocumentSize caps what is read from the decoder. A busy receiver
// produces well under 1 MiB.
const maxDocumentSize = 16 << 20

// Adapter produces one batch of observations per call.
type Adapter interface {
	Fetch(ctx context.Context) ([]models.AircraftSnapshot, error)
	Name() string
}

// FailureReason classifies a Fetch error for metrics labels.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case breaker.IsRejected(err):
		return "circuit_open"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed"
	case errors.Is(err, ErrSourceUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}

// FileAdapter reads aircraft.json from the local filesystem.
type FileAdapter struct {
	path string
	opts DecodeOptions
	now  func() time.Time
}

// NewFileAdapter creates an adapter for path.
func NewFileAdapter(path string, opts DecodeOptions) *FileAdapter {
	return &FileAdapter{path: path, opts: opts, now: time.Now}
}

// Name implements Adapter.
func (a *FileAdapter) Name() string { return "file:" + a.path }

// Fetch implements Adapter.
func (a *FileAdapter) Fetch(ctx context.Context) ([]models.AircraftSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(a.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found (is dump1090-fa running?)", ErrSourceUnavailable, a.path)
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrSourceUnavailable, a.path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Decode(data, a.now(), a.opts)
}

// HTTPAdapter fetches aircraft.json from the decoder's web server.
type HTTPAdapter struct {
	url     string
	opts    DecodeOptions
	client  *http.Client
	breaker *breaker.Breaker[[]byte]
	now     func() time.Time
}

// NewHTTPAdapter creates an adapter for url. The per-request deadline comes
// from the caller's context; the client timeout is a backstop.
func NewHTTPAdapter(url string, timeout time.Duration, opts DecodeOptions) *HTTPAdapter {
	return &HTTPAdapter{
		url:     url,
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker.New[[]byte](breaker.DefaultSettings("decoder-http")),
		now:     time.Now,
	}
}

// Name implements Adapter.
func (a *HTTPAdapter) Name() string { return "http:" + a.url }

// Fetch implements Adapter.
func (a *HTTPAdapter) Fetch(ctx context.Context) ([]models.AircraftSnapshot, error) {
	data, err := a.breaker.Execute(func() ([]byte, error) {
		return a.get(ctx)
	})
	if err != nil {
		return nil, err
	}
	return Decode(data, a.now(), a.opts)
}

func (a *HTTPAdapter) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: decoder returned status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrSourceUnavailable, err)
	}
	return data, nil
}
