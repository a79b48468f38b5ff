package models

import (
	"strings"
	"time"
)

// TripStatus is the lifecycle state of a haul.
type TripStatus string

const (
	TripPlanning  TripStatus = "planning"
	TripActive    TripStatus = "active"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// Trip represents one planned or executed haul created by the mobile app.
// Timestamps are kept as the ISO strings the app writes.
type Trip struct {
	ID                       string     `json:"id" bson:"_id,omitempty"`
	Pickup                   string     `json:"pickup" bson:"pickup"`
	PickupLat                float64    `json:"pickupLat" bson:"pickupLat"`
	PickupLng                float64    `json:"pickupLng" bson:"pickupLng"`
	Destination              string     `json:"destination" bson:"destination"`
	DestinationLat           float64    `json:"destinationLat" bson:"destinationLat"`
	DestinationLng           float64    `json:"destinationLng" bson:"destinationLng"`
	DistanceMiles            float64    `json:"distanceMiles" bson:"distanceMiles"`
	EstimatedFuel            float64    `json:"estimatedFuel" bson:"estimatedFuel"` // in gallons
	FuelCost                 float64    `json:"fuelCost" bson:"fuelCost"`           // in USD
	Duration                 string     `json:"duration" bson:"duration"`
	Status                   TripStatus `json:"status" bson:"status"`
	Date                     string     `json:"date,omitempty" bson:"date,omitempty"`
	CreatedAt                string     `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	StartedAt                string     `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	EndedAt                  string     `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
	CurrentLocationUpdatedAt string     `json:"currentLocationUpdatedAt,omitempty" bson:"currentLocationUpdatedAt,omitempty"`
	UserName                 string     `json:"userName" bson:"userName"`
	UserEmail                string     `json:"userEmail" bson:"userEmail"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats written by the mobile app.
// Strings without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CreatedTime returns the creation instant, false when absent or unparseable.
func (t Trip) CreatedTime() (time.Time, bool) {
	return ParseTimestamp(t.CreatedAt)
}

// StartTime returns when the trip started, falling back to its planned date
// and then to its creation time.
func (t Trip) StartTime() (time.Time, bool) {
	for _, s := range []string{t.StartedAt, t.Date, t.CreatedAt} {
		if ts, ok := ParseTimestamp(s); ok {
			return ts, true
		}
	}
	return time.Time{}, false
}

// PickupLocation returns the pickup coordinates.
func (t Trip) PickupLocation() Location {
	return Location{Lat: t.PickupLat, Lng: t.PickupLng, Address: t.Pickup}
}

// DestinationLocation returns the destination coordinates.
func (t Trip) DestinationLocation() Location {
	return Location{Lat: t.DestinationLat, Lng: t.DestinationLng, Address: t.Destination}
}

// Complete reports whether the trip carries its owner's display name.
// Incomplete trips are excluded from every aggregation.
func (t Trip) Complete() bool {
	return strings.TrimSpace(t.UserName) != ""
}

// IsValidTripStatus checks if a status is one of the known trip states
func IsValidTripStatus(status TripStatus) bool {
	switch status {
	case TripPlanning, TripActive, TripCompleted, TripCancelled:
		return true
	default:
		return false
	}
}
