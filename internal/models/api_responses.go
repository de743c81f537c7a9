// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package models

import (
	"time"
)

// APIResponse is the envelope returned by every JSON endpoint.
//
// Status is "success" (see Data) or "error" (see Error).
//
//	{
//	  "status": "success",
//	  "data": [{"icao": "A1B2C3", ...}],
//	  "metadata": {"timestamp": "2026-01-01T12:00:00Z", "count": 1}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata describes the response.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count,omitempty"`
}

// APIError carries a machine-readable code and a human-readable message.
//
// Codes in use: NOT_FOUND, VALIDATION_ERROR, RATE_LIMIT_EXCEEDED, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// AircraftDetail is the single-aircraft view: the tracked state plus derived
// fields a client would otherwise have to compute.
type AircraftDetail struct {
	TrackedAircraft
	Country       string  `json:"country"`
	TrackedForSec float64 `json:"tracked_for_seconds"`
	PositionCount int     `json:"position_count"`
}
