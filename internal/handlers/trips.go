package handlers

import (
	"net/http"
	"time"

	"github.com/ukydev/fuelroute-admin/internal/analytics"
	"github.com/ukydev/fuelroute-admin/internal/models"
)

// TripListResponse is the trips page payload. Trips and Summary both cover
// only the trips matching the filter.
type TripListResponse struct {
	Trips   []models.Trip      `json:"trips"`
	Count   int                `json:"count"`
	Summary models.TripSummary `json:"summary"`
}

// TripsHandler serves the trips page.
type TripsHandler struct {
	source DataSource
	now    func() time.Time
}

// NewTripsHandler creates a trips handler
func NewTripsHandler(source DataSource) *TripsHandler {
	return &TripsHandler{source: source, now: time.Now}
}

// List handles GET /api/trips?search=&status=&range=
func (h *TripsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := analytics.TripFilter{
		Search: q.Get("search"),
		Status: q.Get("status"),
		Range:  analytics.DateRange(q.Get("range")),
	}
	if filter.Status != "" && filter.Status != analytics.StatusAll && !models.IsValidTripStatus(models.TripStatus(filter.Status)) {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	switch filter.Range {
	case "", analytics.RangeAll, analytics.RangeToday, analytics.RangeWeek, analytics.RangeMonth:
	default:
		writeError(w, http.StatusBadRequest, "Invalid range")
		return
	}

	trips := h.source.FetchTrips(r.Context())
	filtered := analytics.FilterTrips(trips, filter, h.now())
	writeJSON(w, http.StatusOK, TripListResponse{
		Trips:   filtered,
		Count:   len(filtered),
		Summary: analytics.SummarizeTrips(filtered),
	})
}
