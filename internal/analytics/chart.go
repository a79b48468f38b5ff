package analytics

import (
	"time"

	"github.com/ukydev/fuelroute-admin/internal/models"
)

// MonthlyChartSeries buckets trips by the calendar month of their creation
// time and returns one point per non-empty month in Jan..Dec order.
// The year is ignored: January 2023 and January 2024 share a bucket.
func MonthlyChartSeries(trips []models.Trip) []models.ChartSeriesPoint {
	type bucket struct {
		trips   int
		revenue float64
		users   map[string]struct{}
	}
	var buckets [12]*bucket

	for _, trip := range trips {
		created, ok := trip.CreatedTime()
		if !ok {
			continue
		}
		i := int(created.Month()) - 1
		b := buckets[i]
		if b == nil {
			b = &bucket{users: make(map[string]struct{})}
			buckets[i] = b
		}
		b.trips++
		b.revenue += trip.FuelCost
		b.users[trip.UserEmail] = struct{}{}
	}

	points := make([]models.ChartSeriesPoint, 0, len(buckets))
	for i, b := range buckets {
		if b == nil {
			continue
		}
		points = append(points, models.ChartSeriesPoint{
			Month:   MonthLabel(time.Month(i + 1)),
			Trips:   b.trips,
			Revenue: b.revenue,
			Users:   len(b.users),
		})
	}
	return points
}

// MonthLabel returns the three-letter English month name.
func MonthLabel(m time.Month) string {
	return m.String()[:3]
}
