// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/tomtom215/piplane/internal/logging"
	"github.com/tomtom215/piplane/internal/validation"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Supported character LCD geometries (columns x rows).
var lcdGeometries = [][2]int{{16, 2}, {20, 4}}

// Validate checks field ranges and cross-field rules.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, verr.Error())
	}

	checks := []func() error{
		c.validateIngest,
		c.validateTiming,
		c.validateDisplay,
		c.validateSound,
		c.validateWebhook,
		c.validateNATS,
		c.validateEnrichment,
		c.validateLogging,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return nil
}

func (c *Config) validateIngest() error {
	switch c.Ingest.Source {
	case "file":
		if c.Ingest.FilePath == "" {
			return errors.New("ingest.file_path is required when ingest.source=file")
		}
	case "http":
		if err := validateHTTPURL(c.Ingest.URL, "ingest.url"); err != nil {
			return err
		}
	}
	return nil
}

// validateTiming rejects an eviction window shorter than one poll: every
// aircraft would be evicted before it could be seen again.
func (c *Config) validateTiming() error {
	if c.Registry.EvictionTimeout < c.Ingest.PollInterval {
		return fmt.Errorf("registry.eviction_timeout (%s) must be >= ingest.poll_interval (%s)",
			c.Registry.EvictionTimeout, c.Ingest.PollInterval)
	}
	if c.Orchestrator.PruneInterval < c.Ingest.PollInterval {
		return fmt.Errorf("orchestrator.prune_interval (%s) must be >= ingest.poll_interval (%s)",
			c.Orchestrator.PruneInterval, c.Ingest.PollInterval)
	}
	return nil
}

func (c *Config) validateDisplay() error {
	d := c.Display
	if d.LCDEnabled {
		ok := false
		for _, g := range lcdGeometries {
			if d.LCDColumns == g[0] && d.LCDRows == g[1] {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("unsupported LCD size %dx%d (supported: 16x2, 20x4)", d.LCDColumns, d.LCDRows)
		}
	}
	if d.OLEDEnabled {
		if d.OLEDWidth != 128 || (d.OLEDHeight != 32 && d.OLEDHeight != 64) {
			return fmt.Errorf("unsupported OLED size %dx%d (supported: 128x32, 128x64)", d.OLEDWidth, d.OLEDHeight)
		}
	}
	if _, err := loadLocation(d.Timezone); err != nil {
		return fmt.Errorf("display.timezone: %w", err)
	}
	return nil
}

func (c *Config) validateSound() error {
	if !c.Sound.Enabled {
		return nil
	}
	if c.Sound.AudioFile == "" {
		return errors.New("sound.audio_file is required when sound.enabled=true")
	}
	if c.Sound.Player == "" {
		return errors.New("sound.player is required when sound.enabled=true")
	}
	return nil
}

func (c *Config) validateWebhook() error {
	if !c.Webhook.Enabled {
		return nil
	}
	return validateHTTPURL(c.Webhook.URL, "webhook.url")
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled || c.NATS.Embedded {
		return nil
	}
	if c.NATS.URL == "" {
		return errors.New("nats.url is required when nats.enabled=true and nats.embedded=false")
	}
	u, err := url.Parse(c.NATS.URL)
	if err != nil || (u.Scheme != "nats" && u.Scheme != "tls") || u.Host == "" {
		return fmt.Errorf("nats.url must be nats://host:port, got %q", c.NATS.URL)
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	if !c.Enrichment.Enabled {
		return nil
	}
	return validateHTTPURL(c.Enrichment.BaseURL, "enrichment.base_url")
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	return nil
}

// validateHTTPURL requires an absolute http(s) URL with a host.
func validateHTTPURL(rawURL, fieldName string) error {
	if rawURL == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}
