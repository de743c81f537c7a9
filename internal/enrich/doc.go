// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

/*
Package enrich adds registration metadata to newly observed aircraft.

Two sources are combined:

  - Country maps the 24-bit ICAO address onto the ISO 3166 alpha-2 code of the
    state the address block is allocated to. This is a static table and
    never fails; unknown or unparseable addresses map to "XX".
  - HexDBClient queries the hexdb.io aircraft database for registration,
    manufacturer, type and owner. Requests are rate limited, cached in an LRU
    with TTL (negative results included) and wrapped in a circuit breaker.

Notifiers depend on the Enricher interface. Enrichment is best effort: a
lookup failure yields an AircraftInfo carrying only the country, and the
alert proceeds.
*/
package enrich
