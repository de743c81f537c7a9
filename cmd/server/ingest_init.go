// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package main

import (
	"time"

	"github.com/tomtom215/piplane/internal/config"
	"github.com/tomtom215/piplane/internal/enrich"
	"github.com/tomtom215/piplane/internal/ingest"
	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/orchestrator"
)

// newAdapter builds the decoder source selected by ingest.source.
func newAdapter(cfg *config.IngestConfig) ingest.Adapter {
	opts := ingest.DecodeOptions{RequireCallsign: cfg.RequireCallsign}
	if cfg.Source == "http" {
		return ingest.NewHTTPAdapter(cfg.URL, cfg.AdapterTimeout, opts)
	}
	return ingest.NewFileAdapter(cfg.FilePath, opts)
}

func orchestratorConfig(cfg *config.Config) orchestrator.Config {
	return orchestrator.Config{
		PollInterval:    cfg.Ingest.PollInterval,
		PruneInterval:   cfg.Orchestrator.PruneInterval,
		AdapterTimeout:  cfg.Ingest.AdapterTimeout,
		EvictionTimeout: cfg.Registry.EvictionTimeout,
	}
}

// newEnricher returns the hexdb.io client when enrichment is enabled, and
// the offline country lookup otherwise.
func newEnricher(cfg *config.EnrichmentConfig) enrich.Enricher {
	if !cfg.Enabled {
		return enrich.CountryEnricher{}
	}
	logging.Info().
		Str("base_url", cfg.BaseURL).
		Dur("rate_limit", cfg.RateLimit).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Aircraft enrichment enabled")
	return enrich.NewHexDBClient(enrich.HexDBConfig{
		BaseURL:   cfg.BaseURL,
		RateLimit: cfg.RateLimit,
		CacheTTL:  cfg.CacheTTL,
		CacheSize: cfg.CacheSize,
		Timeout:   cfg.Timeout,
	})
}

// staleThreshold is how long ingest may fail before /healthz reports 503:
// twelve polls, but never less than half a minute.
func staleThreshold(cfg *config.IngestConfig) time.Duration {
	d := 12 * cfg.PollInterval
	if d < 30*time.Second {
		d = 30 * time.Second
	}
	return d
}
