package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fuelroute-admin/internal/analytics"
	"github.com/ukydev/fuelroute-admin/internal/db"
	"github.com/ukydev/fuelroute-admin/internal/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	views  []View
	closed bool
	err    error
}

func (p *recordingPublisher) Publish(view View) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.views = append(p.views, view)
	return p.err
}

func (p *recordingPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *recordingPublisher) last() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.views[len(p.views)-1]
}

func newTestFeed(t *testing.T) (*Feed, *db.MemoryStore, *recordingPublisher) {
	t.Helper()
	store := db.NewMemoryStore()
	pub := &recordingPublisher{}
	feed := NewFeed(db.NewRepository(store, "", ""), pub, analytics.DefaultChanges)
	feed.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	return feed, store, pub
}

func putTrip(t *testing.T, store *db.MemoryStore, key string, trip models.Trip) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), db.TripsPath, key, trip))
}

func TestFeed_StartPublishesInitialView(t *testing.T) {
	feed, store, pub := newTestFeed(t)
	putTrip(t, store, "t1", models.Trip{UserName: "Jane", Status: models.TripActive, FuelCost: 40, DistanceMiles: 100, CreatedAt: "2024-06-15T10:00:00Z"})
	require.NoError(t, store.Put(context.Background(), db.UsersPath, "u1", models.User{Name: "Jane"}))

	require.NoError(t, feed.Start(context.Background()))
	defer feed.Close()

	require.Len(t, pub.views, 2, "one view per initial snapshot")
	view := feed.Snapshot()
	assert.Equal(t, 1, view.Stats.TotalTrips)
	assert.Equal(t, 1, view.Stats.TotalUsers)
	assert.Equal(t, 1, view.Stats.ActiveTrips)
	require.Len(t, view.Activity, 1)
	assert.Equal(t, "2 hours ago", view.Activity[0].Time)
}

func TestFeed_ReplacesWholeViewOnChange(t *testing.T) {
	feed, store, pub := newTestFeed(t)
	require.NoError(t, feed.Start(context.Background()))
	defer feed.Close()
	assert.Equal(t, 0, feed.Snapshot().Stats.TotalTrips)

	putTrip(t, store, "t1", models.Trip{UserName: "Jane", Status: models.TripCompleted, FuelCost: 10})
	putTrip(t, store, "t2", models.Trip{UserName: "John", Status: models.TripCompleted, FuelCost: 20})
	assert.Equal(t, 2, feed.Snapshot().Stats.CompletedTrips)
	assert.Equal(t, 30.0, pub.last().Stats.TotalRevenue)

	require.NoError(t, store.Delete(context.Background(), db.TripsPath, "t1"))
	assert.Equal(t, 1, feed.Snapshot().Stats.TotalTrips)
	assert.Equal(t, 20.0, pub.last().Stats.TotalRevenue)

	// trips without a user name never reach the view
	putTrip(t, store, "t3", models.Trip{Status: models.TripActive})
	assert.Equal(t, 1, feed.Snapshot().Stats.TotalTrips)
}

func TestFeed_CloseUnsubscribes(t *testing.T) {
	feed, store, pub := newTestFeed(t)
	require.NoError(t, feed.Start(context.Background()))
	assert.Equal(t, 1, store.Subscribers(db.TripsPath))
	assert.Equal(t, 1, store.Subscribers(db.UsersPath))

	feed.Close()
	assert.Equal(t, 0, store.Subscribers(db.TripsPath))
	assert.Equal(t, 0, store.Subscribers(db.UsersPath))
	assert.True(t, pub.closed)

	published := len(pub.views)
	putTrip(t, store, "t1", models.Trip{UserName: "Jane"})
	assert.Len(t, pub.views, published)
	feed.Close()
}

func TestFeed_PublishErrorKeepsView(t *testing.T) {
	feed, store, pub := newTestFeed(t)
	pub.err = errors.New("broker down")
	require.NoError(t, feed.Start(context.Background()))
	defer feed.Close()

	putTrip(t, store, "t1", models.Trip{UserName: "Jane"})
	assert.Equal(t, 1, feed.Snapshot().Stats.TotalTrips)
}

// stallingPublisher blocks its first Publish until release is closed.
type stallingPublisher struct {
	recordingPublisher
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (p *stallingPublisher) Publish(view View) error {
	stall := false
	p.once.Do(func() { stall = true })
	if stall {
		close(p.entered)
		<-p.release
	}
	return p.recordingPublisher.Publish(view)
}

func TestFeed_LastPublishMatchesSnapshot(t *testing.T) {
	pub := &stallingPublisher{entered: make(chan struct{}), release: make(chan struct{})}
	feed := NewFeed(new(mockSource), pub, analytics.DefaultChanges)
	feed.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		feed.onTrips([]models.Trip{{UserName: "Jane", Status: models.TripActive}})
	}()
	<-pub.entered

	go func() {
		defer wg.Done()
		feed.onUsers([]models.User{{Name: "Jane"}})
	}()
	require.Eventually(t, func() bool {
		return feed.Snapshot().Stats.TotalUsers == 1
	}, time.Second, 5*time.Millisecond)

	close(pub.release)
	wg.Wait()

	want := feed.Snapshot()
	assert.Equal(t, 1, want.Stats.TotalTrips)
	assert.Equal(t, 1, want.Stats.TotalUsers)
	assert.Equal(t, want, pub.last())
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) SubscribeTrips(ctx context.Context, onTrips func([]models.Trip)) (db.Unsubscribe, error) {
	args := m.Called(ctx, onTrips)
	unsub, _ := args.Get(0).(db.Unsubscribe)
	return unsub, args.Error(1)
}

func (m *mockSource) SubscribeUsers(ctx context.Context, onUsers func([]models.User)) (db.Unsubscribe, error) {
	args := m.Called(ctx, onUsers)
	unsub, _ := args.Get(0).(db.Unsubscribe)
	return unsub, args.Error(1)
}

func TestFeed_StartUsersFailureReleasesTrips(t *testing.T) {
	tripsReleased := false
	source := new(mockSource)
	source.On("SubscribeTrips", mock.Anything, mock.Anything).
		Return(db.Unsubscribe(func() { tripsReleased = true }), nil)
	source.On("SubscribeUsers", mock.Anything, mock.Anything).
		Return(nil, errors.New("watch failed"))

	feed := NewFeed(source, nil, analytics.DefaultChanges)
	err := feed.Start(context.Background())
	assert.Error(t, err)
	assert.True(t, tripsReleased)
	source.AssertExpectations(t)
}

func TestNewFeed_EmptyView(t *testing.T) {
	feed := NewFeed(new(mockSource), nil, analytics.DefaultChanges)
	view := feed.Snapshot()
	assert.Equal(t, 0, view.Stats.TotalTrips)
	assert.Equal(t, 15.2, view.Stats.RevenueChange)
	assert.Empty(t, view.Activity)
}
