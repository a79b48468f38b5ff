package db

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fuelroute-admin/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"
)

// Repository reads typed trips and users from a Store. Read failures are
// logged and degrade to empty collections, so callers cannot tell "no data"
// from "fetch failed".
type Repository struct {
	store     Store
	tripsPath string
	usersPath string
}

// NewRepository creates a repository over store. Empty paths fall back to
// TripsPath and UsersPath.
func NewRepository(store Store, tripsPath, usersPath string) *Repository {
	if tripsPath == "" {
		tripsPath = TripsPath
	}
	if usersPath == "" {
		usersPath = UsersPath
	}
	return &Repository{store: store, tripsPath: tripsPath, usersPath: usersPath}
}

// LoadTrips reads the trips collection and reports read failures as ErrFetchFailed.
func (r *Repository) LoadTrips(ctx context.Context) ([]models.Trip, error) {
	snap, err := r.store.Get(ctx, r.tripsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, r.tripsPath, err)
	}
	return DecodeTrips(snap), nil
}

// LoadUsers reads the users collection and reports read failures as ErrFetchFailed.
func (r *Repository) LoadUsers(ctx context.Context) ([]models.User, error) {
	snap, err := r.store.Get(ctx, r.usersPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, r.usersPath, err)
	}
	return DecodeUsers(snap), nil
}

// FetchTrips returns every complete trip, or an empty slice if the read failed.
func (r *Repository) FetchTrips(ctx context.Context) []models.Trip {
	trips, err := r.LoadTrips(ctx)
	if err != nil {
		log.WithError(err).Error("Error fetching trips")
		return []models.Trip{}
	}
	return trips
}

// FetchUsers returns every user, or an empty slice if the read failed.
func (r *Repository) FetchUsers(ctx context.Context) []models.User {
	users, err := r.LoadUsers(ctx)
	if err != nil {
		log.WithError(err).Error("Error fetching users")
		return []models.User{}
	}
	return users
}

// FetchAll reads trips and users concurrently and waits for both.
func (r *Repository) FetchAll(ctx context.Context) ([]models.Trip, []models.User) {
	var (
		trips []models.Trip
		users []models.User
		g     errgroup.Group
	)
	g.Go(func() error {
		trips = r.FetchTrips(ctx)
		return nil
	})
	g.Go(func() error {
		users = r.FetchUsers(ctx)
		return nil
	})
	_ = g.Wait()
	return trips, users
}

// SubscribeTrips delivers the complete trips on every change of the collection.
func (r *Repository) SubscribeTrips(ctx context.Context, onTrips func([]models.Trip)) (Unsubscribe, error) {
	return r.store.Subscribe(ctx, r.tripsPath, func(snap Snapshot) {
		onTrips(DecodeTrips(snap))
	})
}

// SubscribeUsers delivers every user on every change of the collection.
func (r *Repository) SubscribeUsers(ctx context.Context, onUsers func([]models.User)) (Unsubscribe, error) {
	return r.store.Subscribe(ctx, r.usersPath, func(snap Snapshot) {
		onUsers(DecodeUsers(snap))
	})
}

// DecodeTrips decodes a trips snapshot. The storage key becomes the trip id;
// undecodable trips and trips without a user name are dropped.
func DecodeTrips(snap Snapshot) []models.Trip {
	trips := make([]models.Trip, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		var trip models.Trip
		if err := bson.Unmarshal(doc.Raw, &trip); err != nil {
			log.WithError(err).WithField("key", doc.Key).Warn("Skipping undecodable trip")
			continue
		}
		trip.ID = doc.Key
		if !trip.Complete() {
			continue
		}
		trips = append(trips, trip)
	}
	return trips
}

// DecodeUsers decodes a users snapshot. The storage key becomes the user id.
func DecodeUsers(snap Snapshot) []models.User {
	users := make([]models.User, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		var user models.User
		if err := bson.Unmarshal(doc.Raw, &user); err != nil {
			log.WithError(err).WithField("key", doc.Key).Warn("Skipping undecodable user")
			continue
		}
		user.ID = doc.Key
		users = append(users, user)
	}
	return users
}
