package models

import "time"

// DashboardStats are the headline numbers derived from trips and users.
// TotalRevenue is the summed fuel cost of all trips; TotalFuelCost repeats it.
type DashboardStats struct {
	TotalUsers      int     `json:"totalUsers"`
	TotalTrips      int     `json:"totalTrips"`
	ActiveTrips     int     `json:"activeTrips"`
	CompletedTrips  int     `json:"completedTrips"`
	TotalRevenue    float64 `json:"totalRevenue"`
	TotalFuelCost   float64 `json:"totalFuelCost"`
	AvgTripDistance float64 `json:"avgTripDistance"`
	RevenueChange   float64 `json:"revenueChange"`
	TripsChange     float64 `json:"tripsChange"`
	UsersChange     float64 `json:"usersChange"`
}

// ActivityType classifies an entry of the activity feed.
type ActivityType string

const (
	ActivityTripStarted   ActivityType = "trip_started"
	ActivityTripActive    ActivityType = "trip_active"
	ActivityTripCompleted ActivityType = "trip_completed"
)

// ActivityEntry is one line of the recent activity feed.
type ActivityEntry struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	User        string       `json:"user"`
	Description string       `json:"description"`
	Time        string       `json:"time"`
	Status      TripStatus   `json:"status"`
	Timestamp   time.Time    `json:"timestamp"`
}

// ChartSeriesPoint is one calendar-month bucket of the trips chart.
type ChartSeriesPoint struct {
	Month   string  `json:"month"`
	Trips   int     `json:"trips"`
	Revenue float64 `json:"revenue"`
	Users   int     `json:"users"`
}

// TripSummary aggregates a (filtered) list of trips.
type TripSummary struct {
	Total         int     `json:"total"`
	Completed     int     `json:"completed"`
	Active        int     `json:"active"`
	Planning      int     `json:"planning"`
	TotalDistance float64 `json:"totalDistance"`
	TotalFuel     float64 `json:"totalFuel"`
	TotalCost     float64 `json:"totalCost"`
}

// UserSummary aggregates a (filtered) list of users.
type UserSummary struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	ByStatus map[string]int `json:"byStatus"`
}

// DashboardOverview is everything the dashboard home page shows.
type DashboardOverview struct {
	Stats    DashboardStats     `json:"stats"`
	Activity []ActivityEntry    `json:"activity"`
	Chart    []ChartSeriesPoint `json:"chart"`
}
