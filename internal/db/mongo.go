package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo connects to MongoDB at uri and verifies the connection.
func ConnectMongo(uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoStore implements Store on a MongoDB database, one collection per path.
// Subscriptions use change streams and therefore need a replica set.
type MongoStore struct {
	Database *mongo.Database
}

// Get reads every document of the collection, ordered by _id.
func (s *MongoStore) Get(ctx context.Context, path string) (Snapshot, error) {
	if s.Database == nil {
		return Snapshot{}, fmt.Errorf("mongo database is nil")
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.Database.Collection(path).Find(ctx, bson.M{}, opts)
	if err != nil {
		return Snapshot{}, err
	}
	defer cursor.Close(ctx)

	snap := Snapshot{Path: path}
	for cursor.Next(ctx) {
		raw := make(bson.Raw, len(cursor.Current))
		copy(raw, cursor.Current)
		snap.Docs = append(snap.Docs, Document{Key: documentKey(raw), Raw: raw})
	}
	if err := cursor.Err(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Subscribe watches the collection and re-reads it in full after each change.
func (s *MongoStore) Subscribe(ctx context.Context, path string, onSnapshot func(Snapshot)) (Unsubscribe, error) {
	if s.Database == nil {
		return nil, fmt.Errorf("mongo database is nil")
	}
	ctx, cancel := context.WithCancel(ctx)
	stream, err := s.Database.Collection(path).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer stream.Close(context.Background())

		s.deliver(ctx, path, onSnapshot)
		for stream.Next(ctx) {
			s.deliver(ctx, path, onSnapshot)
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			log.WithError(err).WithField("path", path).Error("Change stream stopped")
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

// deliver reads the collection and hands it to the subscriber. A failed read
// is delivered as an empty snapshot.
func (s *MongoStore) deliver(ctx context.Context, path string, onSnapshot func(Snapshot)) {
	snap, err := s.Get(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.WithError(err).WithField("path", path).Error("Failed to read snapshot")
		snap = Snapshot{Path: path}
	}
	onSnapshot(snap)
}

// Put creates or replaces the document stored under key.
func (s *MongoStore) Put(ctx context.Context, path, key string, doc interface{}) error {
	if s.Database == nil {
		return fmt.Errorf("mongo database is nil")
	}
	_, err := s.Database.Collection(path).ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

// DeleteAll removes every document of the collection.
func (s *MongoStore) DeleteAll(ctx context.Context, path string) error {
	if s.Database == nil {
		return fmt.Errorf("mongo database is nil")
	}
	_, err := s.Database.Collection(path).DeleteMany(ctx, bson.M{})
	return err
}

func documentKey(raw bson.Raw) string {
	v, err := raw.LookupErr("_id")
	if err != nil {
		return ""
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	return v.String()
}
