// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide (it caches struct
// metadata). Two consumers use it:
//
//   - internal/config validates field ranges (durations, volume, display
//     geometry) before the cross-field rules run.
//   - internal/api validates query parameters and path values and turns
//     failures into a VALIDATION_ERROR response.
//
// Custom tags:
//
//	icao  six hex digits, optionally prefixed with "~" (TIS-B), any case
//
// Example:
//
//	type aircraftQuery struct {
//	    Limit int    `validate:"min=0,max=1000"`
//	    Sort  string `validate:"omitempty,oneof=last_seen first_seen callsign icao"`
//	}
//
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    ...
//	}
package validation
