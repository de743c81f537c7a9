// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/piplane/config.yaml",
	"/etc/piplane/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			Source:         "file",
			FilePath:       "/var/run/dump1090-fa/aircraft.json",
			URL:            "http://localhost:8080/data/aircraft.json",
			PollInterval:   5 * time.Second,
			AdapterTimeout: 10 * time.Second,
		},
		Registry: RegistryConfig{
			EvictionTimeout: 300 * time.Second,
			PositionHistory: 50,
		},
		Orchestrator: OrchestratorConfig{
			PruneInterval: 5 * time.Second,
		},
		Alerts: AlertsConfig{
			QueueSize:       64,
			NotifierTimeout: 5 * time.Second,
			ShutdownGrace:   5 * time.Second,
		},
		Display: DisplayConfig{
			ConsoleEnabled: true,
			ConsoleRefresh: time.Second,
			ConsoleMaxRows: 15,
			NewTagDuration: 30 * time.Second,
			Timezone:       "Local",
			LCDEnabled:     true,
			LCDColumns:     16,
			LCDRows:        2,
			LCDInterval:    5 * time.Second,
			OLEDEnabled:    true,
			OLEDWidth:      128,
			OLEDHeight:     32,
			OLEDI2CAddress: 0x3C,
			OLEDInterval:   5 * time.Second,
		},
		Sound: SoundConfig{
			Volume:   70,
			Cooldown: time.Second,
			Player:   "mpg123",
		},
		Webhook: WebhookConfig{
			MinInterval: time.Second,
			Timeout:     10 * time.Second,
		},
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			EmbeddedHost:  "127.0.0.1",
			EmbeddedPort:  4222,
			SubjectPrefix: "piplane.aircraft",
		},
		Enrichment: EnrichmentConfig{
			BaseURL:   "https://hexdb.io/api/v1",
			RateLimit: time.Second,
			CacheTTL:  300 * time.Second,
			CacheSize: 1024,
			Timeout:   10 * time.Second,
		},
		Server: ServerConfig{
			Enabled:           true,
			Host:              "0.0.0.0",
			Port:              8090,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load reads defaults, the config file (if any) and environment variables,
// then validates the result.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment variables
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns $CONFIG_PATH if it exists, else the first existing
// default path, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a string.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated env values to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	"ingest_source":    "ingest.source",
	"aircraft_json":    "ingest.file_path",
	"aircraft_url":     "ingest.url",
	"poll_interval":    "ingest.poll_interval",
	"adapter_timeout":  "ingest.adapter_timeout",
	"require_callsign": "ingest.require_callsign",

	"eviction_timeout": "registry.eviction_timeout",
	"position_history": "registry.position_history",
	"prune_interval":   "orchestrator.prune_interval",

	"alert_queue_size":     "alerts.queue_size",
	"notifier_timeout":     "alerts.notifier_timeout",
	"alert_shutdown_grace": "alerts.shutdown_grace",

	"console_enabled":   "display.console_enabled",
	"console_refresh":   "display.console_refresh",
	"console_max_rows":  "display.console_max_rows",
	"new_tag_duration":  "display.new_tag_duration",
	"show_details":      "display.show_details",
	"display_timezone":  "display.timezone",
	"lcd_enabled":       "display.lcd_enabled",
	"lcd_columns":       "display.lcd_columns",
	"lcd_rows":          "display.lcd_rows",
	"lcd_interval":      "display.lcd_interval",
	"oled_enabled":      "display.oled_enabled",
	"oled_width":        "display.oled_width",
	"oled_height":       "display.oled_height",
	"oled_i2c_address":  "display.oled_i2c_address",
	"oled_interval":     "display.oled_interval",

	"sound_enabled":  "sound.enabled",
	"sound_file":     "sound.audio_file",
	"sound_volume":   "sound.volume",
	"sound_cooldown": "sound.cooldown",
	"sound_player":   "sound.player",

	"webhook_enabled":      "webhook.enabled",
	"webhook_url":          "webhook.url",
	"webhook_min_interval": "webhook.min_interval",
	"webhook_timeout":      "webhook.timeout",

	"nats_enabled":        "nats.enabled",
	"nats_url":            "nats.url",
	"nats_embedded":       "nats.embedded",
	"nats_embedded_port":  "nats.embedded_port",
	"nats_subject_prefix": "nats.subject_prefix",

	"enrichment_enabled":    "enrichment.enabled",
	"hexdb_url":             "enrichment.base_url",
	"hexdb_rate_limit":      "enrichment.rate_limit",
	"enrichment_cache_ttl":  "enrichment.cache_ttl",
	"enrichment_cache_size": "enrichment.cache_size",

	"http_enabled":        "server.enabled",
	"http_host":           "server.host",
	"http_port":           "server.port",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"shutdown_timeout":             "supervisor.shutdown_timeout",
}

// envTransformFunc maps an environment variable name to a koanf path.
// Unmapped variables return "" and are skipped so unrelated environment
// does not leak into the configuration.
//
// Examples:
//   - AIRCRAFT_JSON -> ingest.file_path
//   - EVICTION_TIMEOUT -> registry.eviction_timeout
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// WatchConfigFile calls callback whenever the file at path changes.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)
	return provider.Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}

// WatchLogLevel reloads the file at path on change and passes the new
// logging.level to apply. Invalid reloads are reported to onError and
// ignored.
func WatchLogLevel(path string, apply func(level string), onError func(error)) error {
	return WatchConfigFile(path, func() {
		cfg, err := LoadFile(path)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		apply(cfg.Logging.Level)
	})
}
