package analytics

import (
	"strings"
	"time"

	"github.com/ukydev/fuelroute-admin/internal/models"
)

// DateRange restricts trips to a window ending now.
type DateRange string

const (
	RangeAll   DateRange = "all"
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
)

// StatusAll disables status filtering.
const StatusAll = "all"

// TripFilter selects trips for the trips page.
type TripFilter struct {
	Search string
	Status string
	Range  DateRange
}

// UserFilter selects users for the users page.
type UserFilter struct {
	Search string
	Status string
}

// FilterTrips keeps the trips matching every criterion of f. Search is a
// case-insensitive substring of pickup, destination or user name.
func FilterTrips(trips []models.Trip, f TripFilter, now time.Time) []models.Trip {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Trip, 0, len(trips))
	for _, trip := range trips {
		if search != "" &&
			!strings.Contains(strings.ToLower(trip.Pickup), search) &&
			!strings.Contains(strings.ToLower(trip.Destination), search) &&
			!strings.Contains(strings.ToLower(trip.UserName), search) {
			continue
		}
		if !statusMatches(f.Status, string(trip.Status)) {
			continue
		}
		if !inRange(trip, f.Range, now) {
			continue
		}
		out = append(out, trip)
	}
	return out
}

func inRange(trip models.Trip, r DateRange, now time.Time) bool {
	if r == "" || r == RangeAll {
		return true
	}
	start, ok := trip.StartTime()
	if !ok {
		return false
	}
	switch r {
	case RangeToday:
		start = start.In(now.Location())
		y1, m1, d1 := start.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case RangeWeek:
		return !start.Before(now.Add(-7 * 24 * time.Hour))
	case RangeMonth:
		return !start.Before(now.Add(-30 * 24 * time.Hour))
	default:
		return true
	}
}

// SummarizeTrips totals a list of trips for the trips page header.
func SummarizeTrips(trips []models.Trip) models.TripSummary {
	summary := models.TripSummary{Total: len(trips)}
	for _, trip := range trips {
		switch trip.Status {
		case models.TripCompleted:
			summary.Completed++
		case models.TripActive:
			summary.Active++
		case models.TripPlanning:
			summary.Planning++
		}
		summary.TotalDistance += trip.DistanceMiles
		summary.TotalFuel += trip.EstimatedFuel
		summary.TotalCost += trip.FuelCost
	}
	return summary
}

// FilterUsers keeps users whose name or email contains the search text and
// whose status matches.
func FilterUsers(users []models.User, f UserFilter) []models.User {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.User, 0, len(users))
	for _, user := range users {
		if search != "" &&
			!strings.Contains(strings.ToLower(user.Name), search) &&
			!strings.Contains(strings.ToLower(user.Email), search) {
			continue
		}
		if !statusMatches(f.Status, user.Status) {
			continue
		}
		out = append(out, user)
	}
	return out
}

// SummarizeUsers counts users per status.
func SummarizeUsers(users []models.User) models.UserSummary {
	summary := models.UserSummary{Total: len(users), ByStatus: make(map[string]int)}
	for _, user := range users {
		summary.ByStatus[user.Status]++
	}
	summary.Active = summary.ByStatus[models.UserStatusActive]
	return summary
}

func statusMatches(want, got string) bool {
	return want == "" || want == StatusAll || want == got
}
