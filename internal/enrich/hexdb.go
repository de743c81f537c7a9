// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/piplane/internal/breaker"
	"github.com/tomtom215/piplane/internal/cache"
	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/metrics"
)

// ErrNotFound means the lookup service has no record for the address.
var ErrNotFound = errors.New("aircraft not found")

// AircraftInfo is registration metadata for one airframe.
type AircraftInfo struct {
	ICAO         string `json:"icao"`
	Country      string `json:"country"`
	Registration string `json:"registration,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Type         string `json:"type,omitempty"`
	ICAOTypeCode string `json:"icao_type_code,omitempty"`
	Owner        string `json:"owner,omitempty"`
}

// Enricher resolves metadata for an address. Implementations never fail;
// missing data leaves fields empty.
type Enricher interface {
	Enrich(ctx context.Context, icao string) AircraftInfo
}

// CountryEnricher fills only the registration country.
type CountryEnricher struct{}

// Enrich implements Enricher.
func (CountryEnricher) Enrich(_ context.Context, icao string) AircraftInfo {
	return AircraftInfo{ICAO: icao, Country: Country(icao)}
}

// HexDBConfig configures HexDBClient.
type HexDBConfig struct {
	BaseURL   string
	RateLimit time.Duration
	CacheTTL  time.Duration
	CacheSize int
	Timeout   time.Duration
}

// DefaultHexDBConfig returns the public hexdb.io endpoint with one request
// per second and a five minute cache.
func DefaultHexDBConfig() HexDBConfig {
	return HexDBConfig{
		BaseURL:   "https://hexdb.io/api/v1",
		RateLimit: time.Second,
		CacheTTL:  5 * time.Minute,
		CacheSize: 1024,
		Timeout:   10 * time.Second,
	}
}

// hexdbRecord is the hexdb.io /aircraft/{hex} response.
type hexdbRecord struct {
	ModeS            string `json:"ModeS"`
	Registration     string `json:"Registration"`
	Manufacturer     string `json:"Manufacturer"`
	ICAOTypeCode     string `json:"ICAOTypeCode"`
	Type             string `json:"Type"`
	RegisteredOwners string `json:"RegisteredOwners"`

	// Set instead of the fields above when the address is unknown.
	Status string `json:"status"`
	Error  string `json:"error"`
}

// lookupResult caches both hits and ErrNotFound.
type lookupResult struct {
	info  *AircraftInfo
	found bool
}

// HexDBClient looks up aircraft on hexdb.io.
type HexDBClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	cache   *cache.LRU[string, lookupResult]
	breaker *breaker.Breaker[*AircraftInfo]
}

// NewHexDBClient creates a client from cfg. Zero fields take their defaults.
func NewHexDBClient(cfg HexDBConfig) *HexDBClient {
	def := DefaultHexDBConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	settings := breaker.DefaultSettings("hexdb")
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrNotFound)
	}

	return &HexDBClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.RateLimit), 1),
		cache:   cache.New[string, lookupResult](cfg.CacheSize, cfg.CacheTTL),
		breaker: breaker.New[*AircraftInfo](settings),
	}
}

// Lookup returns metadata for icao, ErrNotFound when hexdb has no record, or
// a transport error. Waiting on the rate limiter honors ctx.
func (c *HexDBClient) Lookup(ctx context.Context, icao string) (*AircraftInfo, error) {
	key := strings.ToUpper(strings.TrimSpace(icao))
	if key == "" || strings.HasPrefix(key, "~") {
		metrics.RecordEnrichmentLookup("skipped")
		return nil, ErrNotFound
	}

	if cached, ok := c.cache.Get(key); ok {
		metrics.RecordEnrichmentLookup("cache_hit")
		if !cached.found {
			return nil, ErrNotFound
		}
		info := *cached.info
		return &info, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.RecordEnrichmentLookup("rate_limited")
		return nil, fmt.Errorf("hexdb rate limit wait: %w", err)
	}

	info, err := c.breaker.Execute(func() (*AircraftInfo, error) {
		return c.fetch(ctx, key)
	})
	switch {
	case err == nil:
		metrics.RecordEnrichmentLookup("found")
		c.cache.Add(key, lookupResult{info: info, found: true})
		out := *info
		return &out, nil
	case errors.Is(err, ErrNotFound):
		metrics.RecordEnrichmentLookup("not_found")
		c.cache.Add(key, lookupResult{})
		return nil, err
	default:
		metrics.RecordEnrichmentLookup("error")
		return nil, err
	}
}

// Enrich implements Enricher.
func (c *HexDBClient) Enrich(ctx context.Context, icao string) AircraftInfo {
	info, err := c.Lookup(ctx, icao)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.Ctx(ctx).Debug().Err(err).Str("icao", icao).Msg("hexdb lookup failed")
		}
		return CountryEnricher{}.Enrich(ctx, icao)
	}
	return *info
}

func (c *HexDBClient) fetch(ctx context.Context, icao string) (*AircraftInfo, error) {
	url := c.baseURL + "/aircraft/" + strings.ToLower(icao)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "piplane")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hexdb request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("hexdb returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("read hexdb response: %w", err)
	}

	var rec hexdbRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decode hexdb response: %w", err)
	}
	if rec.Status == "404" || (rec.Registration == "" && rec.Type == "" && rec.ModeS == "") {
		return nil, ErrNotFound
	}

	return &AircraftInfo{
		ICAO:         icao,
		Country:      Country(icao),
		Registration: rec.Registration,
		Manufacturer: rec.Manufacturer,
		Type:         rec.Type,
		ICAOTypeCode: rec.ICAOTypeCode,
		Owner:        rec.RegisteredOwners,
	}, nil
}
