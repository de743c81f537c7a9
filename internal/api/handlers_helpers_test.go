// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "4010EE", want: "4010EE"},
		{in: "line\nbreak", want: "line\\x0abreak"},
		{in: "tab\there", want: "tab\\x09here"},
		{in: "del\x7f", want: "del\\x7f"},
	}
	for _, tt := range tests {
		if got := sanitizeLogValue(tt.in); got != tt.want {
			t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerateETag(t *testing.T) {
	t.Parallel()

	a := generateETag([]byte(`{"icao":"4010EE"}`))
	b := generateETag([]byte(`{"icao":"4010EE"}`))
	c := generateETag([]byte(`{"icao":"A1B2C3"}`))

	if a != b {
		t.Errorf("ETag not deterministic: %s != %s", a, b)
	}
	if a == c {
		t.Error("different bodies share an ETag")
	}
	if a[0] != '"' || a[len(a)-1] != '"' {
		t.Errorf("ETag %s is not quoted", a)
	}
}

func TestGetIntParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query  string
		want   int
		wantOK bool
	}{
		{query: "", want: 50, wantOK: true},
		{query: "limit=10", want: 10, wantOK: true},
		{query: "limit=-3", want: -3, wantOK: true},
		{query: "limit=ten", want: 50, wantOK: false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		got, ok := getIntParam(r, "limit", 50)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("getIntParam(%q) = %d, %v; want %d, %v", tt.query, got, ok, tt.want, tt.wantOK)
		}
	}
}
