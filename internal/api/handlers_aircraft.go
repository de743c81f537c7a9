// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/piplane/internal/enrich"
	"github.com/tomtom215/piplane/internal/models"
	"github.com/tomtom215/piplane/internal/registry"
)

// Sort orders accepted by the aircraft list.
const (
	SortLastSeen  = "last_seen"
	SortFirstSeen = "first_seen"
	SortCallsign  = "callsign"
	SortICAO      = "icao"
)

const maxListLimit = 1000

// AircraftListQuery is the validated query of GET /api/v1/aircraft.
type AircraftListQuery struct {
	Limit        int    `validate:"min=0,max=1000"`
	Sort         string `validate:"omitempty,oneof=last_seen first_seen callsign icao"`
	NewOnly      bool
	WithPosition bool
}

type aircraftPathParams struct {
	ICAO string `validate:"required,icao"`
}

// ListAircraft returns tracked aircraft. The registry already orders by
// lastSeen descending; other orders are applied on the copy.
func (h *Handler) ListAircraft(w http.ResponseWriter, r *http.Request) {
	query, ok := parseListQuery(w, r)
	if !ok {
		return
	}

	list := filterAircraft(h.store.Snapshot(), query)
	sortAircraft(list, query.Sort)
	if query.Limit > 0 && len(list) > query.Limit {
		list = list[:query.Limit]
	}

	respondSuccess(w, list, len(list))
}

// GetAircraft returns one aircraft with derived fields, or 404.
func (h *Handler) GetAircraft(w http.ResponseWriter, r *http.Request) {
	params := aircraftPathParams{ICAO: registry.NormalizeICAO(chi.URLParam(r, "icao"))}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	aircraft, found := h.store.Lookup(params.ICAO)
	if !found {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Aircraft "+params.ICAO+" is not tracked", nil)
		return
	}

	respondSuccess(w, buildDetail(&aircraft), 1)
}

func parseListQuery(w http.ResponseWriter, r *http.Request) (AircraftListQuery, bool) {
	limit, limitOK := getIntParam(r, "limit", 0)
	newOnly, newOK := getBoolParam(r, "new")
	withPos, posOK := getBoolParam(r, "with_position")
	if !limitOK || !newOK || !posOK {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be an integer; new and with_position must be booleans", nil)
		return AircraftListQuery{}, false
	}

	query := AircraftListQuery{
		Limit:        limit,
		Sort:         strings.ToLower(r.URL.Query().Get("sort")),
		NewOnly:      newOnly,
		WithPosition: withPos,
	}
	if apiErr := validateRequest(&query); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return AircraftListQuery{}, false
	}
	if query.Sort == "" {
		query.Sort = SortLastSeen
	}
	return query, true
}

func filterAircraft(list []models.TrackedAircraft, q AircraftListQuery) []models.TrackedAircraft {
	if !q.NewOnly && !q.WithPosition {
		return list
	}
	out := list[:0]
	for i := range list {
		if q.NewOnly && !list[i].IsNew {
			continue
		}
		if q.WithPosition && len(list[i].Positions) == 0 {
			continue
		}
		out = append(out, list[i])
	}
	return out
}

// sortAircraft applies order with icao as the final tie-break so responses
// are deterministic.
func sortAircraft(list []models.TrackedAircraft, order string) {
	var less func(a, b *models.TrackedAircraft) bool
	switch order {
	case SortFirstSeen:
		less = func(a, b *models.TrackedAircraft) bool {
			if !a.FirstSeen.Equal(b.FirstSeen) {
				return a.FirstSeen.After(b.FirstSeen)
			}
			return a.ICAO < b.ICAO
		}
	case SortCallsign:
		less = func(a, b *models.TrackedAircraft) bool {
			if a.DisplayName() != b.DisplayName() {
				return a.DisplayName() < b.DisplayName()
			}
			return a.ICAO < b.ICAO
		}
	case SortICAO:
		less = func(a, b *models.TrackedAircraft) bool {
			return a.ICAO < b.ICAO
		}
	default:
		// Snapshot order.
		return
	}
	sort.SliceStable(list, func(i, j int) bool {
		return less(&list[i], &list[j])
	})
}

func buildDetail(a *models.TrackedAircraft) models.AircraftDetail {
	return models.AircraftDetail{
		TrackedAircraft: *a,
		Country:         enrich.Country(a.ICAO),
		TrackedForSec:   a.TrackedFor().Seconds(),
		PositionCount:   len(a.Positions),
	}
}
