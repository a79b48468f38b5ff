// Package live keeps an always-current dashboard view from store
// subscriptions and publishes it on every change.
package live

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fuelroute-admin/internal/analytics"
	"github.com/ukydev/fuelroute-admin/internal/db"
	"github.com/ukydev/fuelroute-admin/internal/models"
)

// View is the dashboard as of the latest snapshots.
type View struct {
	Stats     models.DashboardStats  `json:"stats"`
	Activity  []models.ActivityEntry `json:"activity"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Source delivers full trip and user snapshots.
type Source interface {
	SubscribeTrips(ctx context.Context, onTrips func([]models.Trip)) (db.Unsubscribe, error)
	SubscribeUsers(ctx context.Context, onUsers func([]models.User)) (db.Unsubscribe, error)
}

// Feed recomputes the view whenever either collection changes.
type Feed struct {
	source    Source
	publisher Publisher
	changes   analytics.Changes
	now       func() time.Time

	// pubMu orders publishes; each one sends the view current when it runs.
	pubMu sync.Mutex

	mu     sync.RWMutex
	trips  []models.Trip
	users  []models.User
	view   View
	unsubs []db.Unsubscribe
}

// NewFeed creates a feed. A nil publisher publishes nothing.
func NewFeed(source Source, publisher Publisher, changes analytics.Changes) *Feed {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	f := &Feed{
		source:    source,
		publisher: publisher,
		changes:   changes,
		now:       time.Now,
	}
	f.view = f.compute()
	return f
}

// Start subscribes to trips and users.
func (f *Feed) Start(ctx context.Context) error {
	unsubTrips, err := f.source.SubscribeTrips(ctx, f.onTrips)
	if err != nil {
		return err
	}
	unsubUsers, err := f.source.SubscribeUsers(ctx, f.onUsers)
	if err != nil {
		unsubTrips()
		return err
	}

	f.mu.Lock()
	f.unsubs = append(f.unsubs, unsubTrips, unsubUsers)
	f.mu.Unlock()
	return nil
}

// Snapshot returns the latest view.
func (f *Feed) Snapshot() View {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.view
}

// Close releases the subscriptions and the publisher.
func (f *Feed) Close() {
	f.mu.Lock()
	unsubs := f.unsubs
	f.unsubs = nil
	f.mu.Unlock()

	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	f.publisher.Close()
}

func (f *Feed) onTrips(trips []models.Trip) {
	f.mu.Lock()
	f.trips = trips
	f.view = f.compute()
	f.mu.Unlock()
	f.publishLatest()
}

func (f *Feed) onUsers(users []models.User) {
	f.mu.Lock()
	f.users = users
	f.view = f.compute()
	f.mu.Unlock()
	f.publishLatest()
}

// compute derives the view from the current collections. Must hold f.mu
// once the feed is shared.
func (f *Feed) compute() View {
	now := f.now()
	return View{
		Stats:     analytics.ComputeStats(f.trips, f.users, f.changes),
		Activity:  analytics.RecentActivity(f.trips, analytics.DefaultActivityLimit, now),
		UpdatedAt: now,
	}
}

// publishLatest sends the current view. The message is retained by the
// broker, so the last publish must never carry an older view than Snapshot.
func (f *Feed) publishLatest() {
	f.pubMu.Lock()
	defer f.pubMu.Unlock()
	if err := f.publisher.Publish(f.Snapshot()); err != nil {
		log.WithError(err).Warn("Failed to publish live stats")
	}
}
