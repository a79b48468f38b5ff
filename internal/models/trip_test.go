package models

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		{"rfc3339 with millis", "2024-01-15T10:30:00.123Z", time.Date(2024, 1, 15, 10, 30, 0, 123000000, time.UTC), true},
		{"rfc3339", "2024-01-15T10:30:00Z", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), true},
		{"no zone", "2024-01-15T10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), true},
		{"date only", "2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "yesterday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseTimestamp(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTrip_StartTimeFallback(t *testing.T) {
	trip := Trip{CreatedAt: "2024-02-01T08:00:00Z"}
	start, ok := trip.StartTime()
	if !ok || start.Month() != time.February {
		t.Errorf("expected fallback to createdAt, got %v (%v)", start, ok)
	}

	trip.StartedAt = "2024-03-05T09:00:00Z"
	start, ok = trip.StartTime()
	if !ok || start.Month() != time.March {
		t.Errorf("expected startedAt to win, got %v (%v)", start, ok)
	}
}

func TestTrip_Complete(t *testing.T) {
	if (Trip{UserName: "  "}).Complete() {
		t.Error("blank user name should make the trip incomplete")
	}
	if !(Trip{UserName: "Jo"}).Complete() {
		t.Error("trip with a user name should be complete")
	}
}

func TestIsValidTripStatus(t *testing.T) {
	for _, s := range []TripStatus{TripPlanning, TripActive, TripCompleted, TripCancelled} {
		if !IsValidTripStatus(s) {
			t.Errorf("IsValidTripStatus(%s) = false, want true", s)
		}
	}
	if IsValidTripStatus("paused") {
		t.Error("IsValidTripStatus(paused) = true, want false")
	}
}
