// Package analytics derives dashboard statistics, activity feeds and chart
// series from raw trip and user collections. Every function is pure: it only
// reads the slices it is given and never touches the network or storage.
package analytics

import "github.com/ukydev/fuelroute-admin/internal/models"

// Changes are the period-over-period percentages shown next to the headline
// numbers. They are supplied by configuration, not computed from history.
type Changes struct {
	Revenue float64
	Trips   float64
	Users   float64
}

// DefaultChanges are the figures the dashboard shows when none are configured.
var DefaultChanges = Changes{Revenue: 15.2, Trips: 8.5, Users: 12.3}

// ComputeStats aggregates trips and users into the dashboard headline numbers.
// Revenue is the summed fuel cost of every trip. Empty inputs yield zeros.
func ComputeStats(trips []models.Trip, users []models.User, changes Changes) models.DashboardStats {
	stats := models.DashboardStats{
		TotalUsers:    len(users),
		TotalTrips:    len(trips),
		RevenueChange: changes.Revenue,
		TripsChange:   changes.Trips,
		UsersChange:   changes.Users,
	}

	var distance float64
	for _, trip := range trips {
		switch trip.Status {
		case models.TripActive:
			stats.ActiveTrips++
		case models.TripCompleted:
			stats.CompletedTrips++
		}
		stats.TotalRevenue += trip.FuelCost
		distance += trip.DistanceMiles
	}
	stats.TotalFuelCost = stats.TotalRevenue

	if stats.TotalTrips > 0 {
		stats.AvgTripDistance = distance / float64(stats.TotalTrips)
	}
	return stats
}
