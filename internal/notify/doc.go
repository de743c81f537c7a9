// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

/*
Package notify contains the alert sinks registered with the alert engine.

Each sink implements alert.Notifier plus the handler interfaces for the
transitions it cares about:

	sink        new  update  expire  notes
	log          x             x     primary sink, called inline
	console      x     x       x     redraws the tracked list on its own ticker
	lcd          x             x     one aircraft per interval on a character LCD
	oled         x             x     one aircraft per interval on an OLED panel
	sound        x                   plays a clip through mpg123, rate limited
	webhook      x             x     JSON POST with enrichment, circuit breaker
	websocket    x     x       x     pushes to browsers through the hub

Sinks with their own render cadence (console, lcd, oled) expose
RunWithContext so the supervisor owns their goroutines. Their handlers only
enqueue or mark dirty, and never block on hardware.

Hardware drivers are outside this package. CharDisplay and Panel are the
seams; VirtualLCD and VirtualPanel are in-memory implementations used on
hosts without a display and in tests.
*/
package notify
