package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fuelroute-admin/internal/config"
	"github.com/ukydev/fuelroute-admin/internal/db"
	"github.com/ukydev/fuelroute-admin/internal/models"
)

// City is a pickup or destination of generated trips.
type City struct {
	Name string
	Lat  float64
	Lng  float64
}

// Cities for realistic routes
var cities = []City{
	{"New York, NY", 40.7128, -74.0060},
	{"Los Angeles, CA", 34.0522, -118.2437},
	{"Chicago, IL", 41.8781, -87.6298},
	{"Houston, TX", 29.7604, -95.3698},
	{"Phoenix, AZ", 33.4484, -112.0740},
	{"Philadelphia, PA", 39.9526, -75.1652},
	{"San Antonio, TX", 29.4241, -98.4936},
	{"San Diego, CA", 32.7157, -117.1611},
	{"Dallas, TX", 32.7767, -96.7970},
	{"San Jose, CA", 37.3382, -121.8863},
	{"Denver, CO", 39.7392, -104.9903},
	{"Atlanta, GA", 33.7490, -84.3880},
	{"Memphis, TN", 35.1495, -90.0490},
	{"Kansas City, MO", 39.0997, -94.5786},
}

var (
	firstNames   = []string{"James", "Maria", "Robert", "Linda", "Michael", "Sarah", "David", "Karen", "Carlos", "Aisha"}
	lastNames    = []string{"Smith", "Johnson", "Garcia", "Brown", "Miller", "Davis", "Lopez", "Wilson", "Moore", "Taylor"}
	userStatuses = []string{models.UserStatusActive, models.UserStatusActive, models.UserStatusActive, "Inactive", "Suspended"}
	tripStatuses = []models.TripStatus{models.TripPlanning, models.TripActive, models.TripCompleted, models.TripCompleted, models.TripCancelled}
)

// roadFactor converts great-circle distance into driving distance.
const roadFactor = 1.2

// Putter writes documents into the store.
type Putter interface {
	Put(ctx context.Context, path, key string, doc interface{}) error
	DeleteAll(ctx context.Context, path string) error
}

func haversineMiles(a, b City) float64 {
	R := 3958.8
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return R * c
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func generateUsers(rng *rand.Rand, count int, now time.Time) []models.User {
	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		home := cities[rng.Intn(len(cities))]
		joined := now.Add(-time.Duration(rng.Int63n(int64(365 * 24 * time.Hour))))
		id := uuid.NewString()

		users = append(users, models.User{
			ID:       id,
			UID:      id,
			Name:     first + " " + last,
			Email:    fmt.Sprintf("driver%d@example.com", i+1),
			Phone:    fmt.Sprintf("+1%010d", 1000000000+rng.Int63n(9000000000)),
			Role:     "driver",
			Status:   userStatuses[rng.Intn(len(userStatuses))],
			JoinDate: joined.UTC().Format(time.RFC3339),
			Location: &models.Location{Lat: home.Lat, Lng: home.Lng, Address: home.Name},
		})
	}
	return users
}

func generateTrips(rng *rand.Rand, users []models.User, count int, now time.Time) []models.Trip {
	if len(users) == 0 {
		return nil
	}
	trips := make([]models.Trip, 0, count)
	for i := 0; i < count; i++ {
		user := users[rng.Intn(len(users))]
		pickup := cities[rng.Intn(len(cities))]
		destination := cities[rng.Intn(len(cities))]
		for destination.Name == pickup.Name {
			destination = cities[rng.Intn(len(cities))]
		}

		distance := math.Round(haversineMiles(pickup, destination) * roadFactor)
		mpg := 6 + rng.Float64()*3
		dieselPrice := 3 + rng.Float64()*2
		fuel := distance / mpg
		speed := 50 + rng.Float64()*20
		hours := distance / speed

		created := now.Add(-time.Duration(rng.Int63n(int64(180 * 24 * time.Hour))))
		status := tripStatuses[rng.Intn(len(tripStatuses))]

		trip := models.Trip{
			ID:             uuid.NewString(),
			Pickup:         pickup.Name,
			PickupLat:      pickup.Lat,
			PickupLng:      pickup.Lng,
			Destination:    destination.Name,
			DestinationLat: destination.Lat,
			DestinationLng: destination.Lng,
			DistanceMiles:  distance,
			EstimatedFuel:  round2(fuel),
			FuelCost:       round2(fuel * dieselPrice),
			Duration:       fmt.Sprintf("%dh %dm", int(hours), int((hours-math.Floor(hours))*60)),
			Status:         status,
			Date:           created.UTC().Format("2006-01-02"),
			CreatedAt:      created.UTC().Format(time.RFC3339),
			UserName:       user.Name,
			UserEmail:      user.Email,
		}
		switch status {
		case models.TripActive:
			trip.StartedAt = created.Add(30 * time.Minute).UTC().Format(time.RFC3339)
			trip.CurrentLocationUpdatedAt = now.UTC().Format(time.RFC3339)
		case models.TripCompleted:
			started := created.Add(30 * time.Minute)
			trip.StartedAt = started.UTC().Format(time.RFC3339)
			trip.EndedAt = started.Add(time.Duration(hours * float64(time.Hour))).UTC().Format(time.RFC3339)
		}
		trips = append(trips, trip)
	}
	return trips
}

func seed(ctx context.Context, store Putter, tripsPath, usersPath string, users []models.User, trips []models.Trip, reset bool) error {
	if reset {
		for _, path := range []string{tripsPath, usersPath} {
			if err := store.DeleteAll(ctx, path); err != nil {
				return fmt.Errorf("failed to reset %s: %w", path, err)
			}
		}
	}
	for _, user := range users {
		if err := store.Put(ctx, usersPath, user.ID, user); err != nil {
			return fmt.Errorf("failed to write user %s: %w", user.ID, err)
		}
	}
	for _, trip := range trips {
		if err := store.Put(ctx, tripsPath, trip.ID, trip); err != nil {
			return fmt.Errorf("failed to write trip %s: %w", trip.ID, err)
		}
	}
	return nil
}

func main() {
	cfg := config.Load()
	cfg.ConfigureLogger()

	userCount := config.GetEnvAsInt("SEED_USERS", 25)
	tripCount := config.GetEnvAsInt("SEED_TRIPS", 100)
	reset := config.GetEnvAsBool("SEED_RESET", false)

	if err := run(cfg, userCount, tripCount, reset); err != nil {
		log.WithError(err).Fatal("Seeding failed")
	}
}

func run(cfg *config.Config, userCount, tripCount int, reset bool) error {
	log.WithFields(log.Fields{
		"users":    userCount,
		"trips":    tripCount,
		"reset":    reset,
		"database": cfg.MongoDB,
	}).Info("Seeding dashboard data")

	client, err := db.ConnectMongo(cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()

	store := &db.MongoStore{Database: client.Database(cfg.MongoDB)}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now()
	users := generateUsers(rng, userCount, now)
	trips := generateTrips(rng, users, tripCount, now)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := seed(ctx, store, cfg.TripsPath, cfg.UsersPath, users, trips, reset); err != nil {
		return err
	}
	log.WithFields(log.Fields{"users": len(users), "trips": len(trips)}).Info("Seeding completed")
	return nil
}
