package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// MemoryStore is an in-process Store. Subscribers are notified synchronously
// from Put and Delete.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string]map[string]bson.Raw
	errs   map[string]error
	subs   map[string]map[int]func(Snapshot)
	nextID int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]bson.Raw),
		errs: make(map[string]error),
		subs: make(map[string]map[int]func(Snapshot)),
	}
}

// Put stores doc under key and notifies subscribers of path.
func (s *MemoryStore) Put(ctx context.Context, path, key string, doc interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", path, key, err)
	}
	s.mu.Lock()
	if s.data[path] == nil {
		s.data[path] = make(map[string]bson.Raw)
	}
	s.data[path][key] = raw
	s.mu.Unlock()

	s.notify(path)
	return nil
}

// Delete removes key from path and notifies subscribers.
func (s *MemoryStore) Delete(ctx context.Context, path, key string) error {
	s.mu.Lock()
	delete(s.data[path], key)
	s.mu.Unlock()

	s.notify(path)
	return nil
}

// DeleteAll removes every document under path.
func (s *MemoryStore) DeleteAll(ctx context.Context, path string) error {
	s.mu.Lock()
	delete(s.data, path)
	s.mu.Unlock()

	s.notify(path)
	return nil
}

// FailReads makes every read of path return err until called with nil.
func (s *MemoryStore) FailReads(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.errs, path)
		return
	}
	s.errs[path] = err
}

// Get returns the documents under path ordered by key.
func (s *MemoryStore) Get(ctx context.Context, path string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs[path]; err != nil {
		return Snapshot{}, err
	}
	return s.snapshotLocked(path), nil
}

// Subscribe registers onSnapshot and calls it immediately with the current content.
func (s *MemoryStore) Subscribe(ctx context.Context, path string, onSnapshot func(Snapshot)) (Unsubscribe, error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if s.subs[path] == nil {
		s.subs[path] = make(map[int]func(Snapshot))
	}
	s.subs[path][id] = onSnapshot
	snap := s.snapshotLocked(path)
	s.mu.Unlock()

	onSnapshot(snap)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[path], id)
			s.mu.Unlock()
		})
	}, nil
}

// Subscribers returns the number of live subscriptions on path.
func (s *MemoryStore) Subscribers(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[path])
}

func (s *MemoryStore) notify(path string) {
	s.mu.Lock()
	snap := s.snapshotLocked(path)
	callbacks := make([]func(Snapshot), 0, len(s.subs[path]))
	for _, cb := range s.subs[path] {
		callbacks = append(callbacks, cb)
	}
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(snap)
	}
}

func (s *MemoryStore) snapshotLocked(path string) Snapshot {
	snap := Snapshot{Path: path}
	if s.errs[path] != nil {
		return snap
	}
	keys := make([]string, 0, len(s.data[path]))
	for k := range s.data[path] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		snap.Docs = append(snap.Docs, Document{Key: k, Raw: s.data[path][k]})
	}
	return snap
}
