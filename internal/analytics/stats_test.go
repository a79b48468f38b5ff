package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/fuelroute-admin/internal/models"
)

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil, nil, Changes{})

	assert.Equal(t, models.DashboardStats{}, stats)
	assert.Zero(t, stats.AvgTripDistance)
}

func TestComputeStats_Counts(t *testing.T) {
	trips := []models.Trip{
		{ID: "a", Status: models.TripActive},
		{ID: "b", Status: models.TripCompleted},
		{ID: "c", Status: models.TripCompleted},
		{ID: "d", Status: models.TripPlanning},
		{ID: "e", Status: models.TripCancelled},
	}
	users := []models.User{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}}

	stats := ComputeStats(trips, users, DefaultChanges)

	assert.Equal(t, 5, stats.TotalTrips)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 1, stats.ActiveTrips)
	assert.Equal(t, 2, stats.CompletedTrips)
	assert.Equal(t, 15.2, stats.RevenueChange)
	assert.Equal(t, 8.5, stats.TripsChange)
	assert.Equal(t, 12.3, stats.UsersChange)
}

func TestComputeStats_RevenueIsSummedFuelCost(t *testing.T) {
	trips := []models.Trip{
		{FuelCost: 100},
		{FuelCost: 250.5},
		{FuelCost: 0},
		{},
	}

	stats := ComputeStats(trips, nil, Changes{})

	assert.Equal(t, 350.5, stats.TotalRevenue)
	assert.Equal(t, stats.TotalRevenue, stats.TotalFuelCost)
}

func TestComputeStats_AverageDistance(t *testing.T) {
	trips := []models.Trip{{DistanceMiles: 100}, {DistanceMiles: 200}, {DistanceMiles: 300}}

	stats := ComputeStats(trips, nil, Changes{})

	assert.Equal(t, 200.0, stats.AvgTripDistance)
}

func TestComputeStats_Scenario(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	trips := []models.Trip{
		{Status: models.TripCompleted, FuelCost: 100, CreatedAt: base.Format(time.RFC3339), UserName: "Ann"},
		{Status: models.TripActive, FuelCost: 50, CreatedAt: base.Add(time.Hour).Format(time.RFC3339), UserName: "Bob"},
	}
	users := []models.User{{ID: "u1"}, {ID: "u2"}}

	stats := ComputeStats(trips, users, Changes{})

	assert.Equal(t, models.DashboardStats{
		TotalUsers:      2,
		TotalTrips:      2,
		ActiveTrips:     1,
		CompletedTrips:  1,
		TotalRevenue:    150,
		TotalFuelCost:   150,
		AvgTripDistance: 0,
	}, stats)
}
