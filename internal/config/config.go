// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Ingest       IngestConfig       `koanf:"ingest"`
	Registry     RegistryConfig     `koanf:"registry"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Alerts       AlertsConfig       `koanf:"alerts"`
	Display      DisplayConfig      `koanf:"display"`
	Sound        SoundConfig        `koanf:"sound"`
	Webhook      WebhookConfig      `koanf:"webhook"`
	NATS         NATSConfig         `koanf:"nats"`
	Enrichment   EnrichmentConfig   `koanf:"enrichment"`
	Server       ServerConfig       `koanf:"server"`
	Logging      LoggingConfig      `koanf:"logging"`
	Supervisor   SupervisorConfig   `koanf:"supervisor"`

	// Path is the config file that was loaded, empty when none was found.
	Path string `koanf:"-"`
}

// IngestConfig selects and paces the decoder source.
type IngestConfig struct {
	// Source is "file" (read aircraft.json from disk) or "http".
	Source          string        `koanf:"source" validate:"oneof=file http"`
	FilePath        string        `koanf:"file_path"`
	URL             string        `koanf:"url"`
	PollInterval    time.Duration `koanf:"poll_interval" validate:"gt=0"`
	AdapterTimeout  time.Duration `koanf:"adapter_timeout" validate:"gt=0"`
	RequireCallsign bool          `koanf:"require_callsign"`
}

// RegistryConfig controls tracking lifetime.
type RegistryConfig struct {
	EvictionTimeout time.Duration `koanf:"eviction_timeout" validate:"gt=0"`
	PositionHistory int           `koanf:"position_history" validate:"min=1,max=10000"`
}

// OrchestratorConfig controls the prune cadence.
type OrchestratorConfig struct {
	PruneInterval time.Duration `koanf:"prune_interval" validate:"gt=0"`
}

// AlertsConfig bounds notifier dispatch.
type AlertsConfig struct {
	QueueSize       int           `koanf:"queue_size" validate:"min=1,max=100000"`
	NotifierTimeout time.Duration `koanf:"notifier_timeout" validate:"gt=0"`
	ShutdownGrace   time.Duration `koanf:"shutdown_grace" validate:"gte=0"`
}

// DisplayConfig covers the console list and the two small displays.
type DisplayConfig struct {
	ConsoleEnabled bool          `koanf:"console_enabled"`
	ConsoleRefresh time.Duration `koanf:"console_refresh" validate:"gt=0"`
	ConsoleMaxRows int           `koanf:"console_max_rows" validate:"min=1,max=500"`
	NewTagDuration time.Duration `koanf:"new_tag_duration" validate:"gte=0"`
	ShowDetails    bool          `koanf:"show_details"`
	// Timezone for displayed times, an IANA name or "Local".
	Timezone string `koanf:"timezone"`

	LCDEnabled  bool          `koanf:"lcd_enabled"`
	LCDColumns  int           `koanf:"lcd_columns"`
	LCDRows     int           `koanf:"lcd_rows"`
	LCDInterval time.Duration `koanf:"lcd_interval" validate:"gt=0"`

	OLEDEnabled    bool          `koanf:"oled_enabled"`
	OLEDWidth      int           `koanf:"oled_width"`
	OLEDHeight     int           `koanf:"oled_height"`
	OLEDI2CAddress int           `koanf:"oled_i2c_address" validate:"min=0,max=127"`
	OLEDInterval   time.Duration `koanf:"oled_interval" validate:"gt=0"`
}

// SoundConfig configures the new-aircraft chime.
type SoundConfig struct {
	Enabled   bool          `koanf:"enabled"`
	AudioFile string        `koanf:"audio_file"`
	Volume    int           `koanf:"volume" validate:"gte=0,lte=100"`
	Cooldown  time.Duration `koanf:"cooldown" validate:"gte=0"`
	Player    string        `koanf:"player"`
}

// WebhookConfig configures the HTTP alert sink.
type WebhookConfig struct {
	Enabled     bool              `koanf:"enabled"`
	URL         string            `koanf:"url"`
	Headers     map[string]string `koanf:"headers"`
	MinInterval time.Duration     `koanf:"min_interval" validate:"gte=0"`
	Timeout     time.Duration     `koanf:"timeout" validate:"gt=0"`
}

// NATSConfig configures the event bus publisher.
type NATSConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	Embedded      bool   `koanf:"embedded"`
	EmbeddedHost  string `koanf:"embedded_host"`
	EmbeddedPort  int    `koanf:"embedded_port" validate:"min=-1,max=65535"`
	SubjectPrefix string `koanf:"subject_prefix" validate:"required"`
}

// EnrichmentConfig configures hexdb.io lookups.
type EnrichmentConfig struct {
	Enabled   bool          `koanf:"enabled"`
	BaseURL   string        `koanf:"base_url"`
	RateLimit time.Duration `koanf:"rate_limit" validate:"gte=0"`
	CacheTTL  time.Duration `koanf:"cache_ttl" validate:"gt=0"`
	CacheSize int           `koanf:"cache_size" validate:"min=1"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Enabled           bool          `koanf:"enabled"`
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	ReadTimeout       time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout      time.Duration `koanf:"write_timeout" validate:"gt=0"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig configures the suture tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// ServerAddr returns host:port for the HTTP listener.
func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Location returns the display time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := loadLocation(c.Display.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return loc, nil
}
