// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

/*
Package config loads and validates PiPlane configuration.

Configuration is layered with Koanf v2, later layers overriding earlier ones:

 1. Defaults from defaultConfig()
 2. Optional YAML file: $CONFIG_PATH, else the first of DefaultConfigPaths
 3. Environment variables listed in envMappings (unlisted variables are ignored)

After unmarshalling, Validate runs the struct tags through internal/validation
and then the cross-field rules. The one rule that matters most: an eviction
timeout shorter than the poll interval would evict every aircraft between two
polls, so it is rejected at startup.

Example config.yaml:

	ingest:
	  source: file
	  file_path: /run/dump1090-fa/aircraft.json
	  poll_interval: 5s
	registry:
	  eviction_timeout: 5m
	display:
	  lcd_columns: 20
	  lcd_rows: 4
	sound:
	  enabled: true
	  audio_file: /usr/share/piplane/alert.mp3
	nats:
	  enabled: true
	  embedded: true

Only logging.level is applied on hot reload (see WatchLogLevel). Everything
else needs a restart.
*/
package config
