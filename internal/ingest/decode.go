// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/piplane/internal/models"
)

// DecodeOptions controls record filtering.
type DecodeOptions struct {
	// RequireCallsign drops records without a flight field.
	RequireCallsign bool
}

type aircraftDocument struct {
	Now      float64          `json:"now"`
	Messages int64            `json:"messages"`
	Aircraft []aircraftRecord `json:"aircraft"`
}

type aircraftRecord struct {
	Hex      string    `json:"hex"`
	Flight   *string   `json:"flight"`
	AltBaro  *altitude `json:"alt_baro"`
	Altitude *altitude `json:"altitude"` // pre-4.0 dump1090
	AltGeom  *float64  `json:"alt_geom"`
	GS       *float64  `json:"gs"`
	Speed    *float64  `json:"speed"` // pre-4.0 dump1090
	Track    *float64  `json:"track"`
	Lat      *float64  `json:"lat"`
	Lon      *float64  `json:"lon"`
	Seen     *float64  `json:"seen"`
	Squawk   *string   `json:"squawk"`
	Category *string   `json:"category"`
}

// altitude is either a number of feet or the string "ground".
type altitude struct {
	feet   float64
	ground bool
}

func (a *altitude) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte(`"ground"`)) {
		a.ground = true
		a.feet = 0
		return nil
	}
	return json.Unmarshal(b, &a.feet)
}

// Decode parses an aircraft.json document. fetchedAt is the wall-clock time
// the document was read; each record's observedAt is fetchedAt - seen.
//
// Records with an empty hex are passed through with an empty ICAO so the
// registry can count them as dropped.
func Decode(data []byte, fetchedAt time.Time, opts DecodeOptions) ([]models.AircraftSnapshot, error) {
	var doc aircraftDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	out := make([]models.AircraftSnapshot, 0, len(doc.Aircraft))
	for i := range doc.Aircraft {
		rec := &doc.Aircraft[i]
		snap, ok := rec.toSnapshot(fetchedAt, opts)
		if !ok {
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

func (r *aircraftRecord) toSnapshot(fetchedAt time.Time, opts DecodeOptions) (models.AircraftSnapshot, bool) {
	s := models.AircraftSnapshot{
		ICAO:        strings.ToUpper(strings.TrimSpace(r.Hex)),
		GroundSpeed: r.GS,
		Heading:     r.Track,
		Squawk:      r.Squawk,
		Category:    r.Category,
		ObservedAt:  fetchedAt,
	}

	if r.Flight != nil {
		if cs := strings.TrimSpace(*r.Flight); cs != "" {
			s.Callsign = &cs
		}
	}
	if opts.RequireCallsign && s.Callsign == nil {
		return s, false
	}

	if s.GroundSpeed == nil {
		s.GroundSpeed = r.Speed
	}

	alt := r.AltBaro
	if alt == nil {
		alt = r.Altitude
	}
	switch {
	case alt != nil:
		feet := alt.feet
		s.Altitude = &feet
		s.OnGround = alt.ground
	case r.AltGeom != nil:
		s.Altitude = r.AltGeom
	}

	if r.Lat != nil && r.Lon != nil {
		s.Latitude = r.Lat
		s.Longitude = r.Lon
	}

	if r.Seen != nil && *r.Seen > 0 {
		s.ObservedAt = fetchedAt.Add(-time.Duration(*r.Seen * float64(time.Second)))
	}
	return s, true
}
