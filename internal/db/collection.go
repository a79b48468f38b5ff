package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrFetchFailed wraps every failed read of a collection.
var ErrFetchFailed = errors.New("fetch failed")

// Default collection paths of the realtime store.
const (
	TripsPath = "trips"
	UsersPath = "users"
)

// Document is one child of a collection, keyed by its storage id.
type Document struct {
	Key string
	Raw bson.Raw
}

// Snapshot is the full content of a collection at one point in time,
// ordered by key.
type Snapshot struct {
	Path string
	Docs []Document
}

// Exists reports whether the collection had any children.
func (s Snapshot) Exists() bool {
	return len(s.Docs) > 0
}

// Unsubscribe cancels a subscription. It is safe to call more than once.
type Unsubscribe func()

// Store defines the operations the dashboard needs from the document store.
type Store interface {
	// Get reads the whole collection at path.
	Get(ctx context.Context, path string) (Snapshot, error)
	// Subscribe calls onSnapshot with the full collection now and after every
	// change until the returned Unsubscribe is called or ctx is done.
	Subscribe(ctx context.Context, path string, onSnapshot func(Snapshot)) (Unsubscribe, error)
}
