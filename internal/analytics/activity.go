package analytics

import (
	"fmt"
	"slices"
	"time"

	"github.com/ukydev/fuelroute-admin/internal/models"
)

// DefaultActivityLimit is the feed length used when no positive limit is given.
const DefaultActivityLimit = 10

// RecentActivity turns the most recently created trips into feed entries,
// newest first. Trips without a creation timestamp are skipped; trips created
// at the same instant keep their input order. Relative labels are computed
// against now.
func RecentActivity(trips []models.Trip, limit int, now time.Time) []models.ActivityEntry {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	type dated struct {
		trip    models.Trip
		created time.Time
	}
	candidates := make([]dated, 0, len(trips))
	for _, trip := range trips {
		created, ok := trip.CreatedTime()
		if !ok {
			continue
		}
		candidates = append(candidates, dated{trip: trip, created: created})
	}

	slices.SortStableFunc(candidates, func(a, b dated) int {
		return b.created.Compare(a.created)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	entries := make([]models.ActivityEntry, 0, len(candidates))
	for _, c := range candidates {
		activityType, description := classify(c.trip)
		entries = append(entries, models.ActivityEntry{
			ID:          c.trip.ID,
			Type:        activityType,
			User:        c.trip.UserName,
			Description: description,
			Time:        TimeAgo(c.created, now),
			Status:      c.trip.Status,
			Timestamp:   c.created,
		})
	}
	return entries
}

// classify maps a trip status onto the feed. Planning and cancelled trips are
// both reported as started.
func classify(trip models.Trip) (models.ActivityType, string) {
	switch trip.Status {
	case models.TripCompleted:
		return models.ActivityTripCompleted, fmt.Sprintf("Completed trip from %s to %s", trip.Pickup, trip.Destination)
	case models.TripActive:
		return models.ActivityTripActive, fmt.Sprintf("Trip in progress from %s to %s", trip.Pickup, trip.Destination)
	default:
		return models.ActivityTripStarted, fmt.Sprintf("Started trip from %s to %s", trip.Pickup, trip.Destination)
	}
}

// TimeAgo renders the whole days or hours elapsed between then and now.
func TimeAgo(then, now time.Time) string {
	hours := int(now.Sub(then) / time.Hour)
	days := hours / 24

	switch {
	case days > 0:
		return plural(days, "day") + " ago"
	case hours > 0:
		return plural(hours, "hour") + " ago"
	default:
		return "Just now"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
