// Package statsstore persists Counter/Float statistics snapshots to
// MongoDB, substituting for the reference implementation's SQLite-backed
// persistent statistics store: this module ships a Mongo driver, not a
// SQLite one.
package statsstore

import (
	"context"
	"fmt"
	"time"

	"github.com/asgard/heimdall/internal/telemetry/stats"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists statistics snapshots into a single Mongo collection,
// one document per (name, recorded_at).
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect dials uri and opens the named database/collection, failing
// fast if the server cannot be pinged within the connect timeout.
func Connect(ctx context.Context, uri, database, collection string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("statsstore: connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("statsstore: ping: %w", err)
	}
	return &Store{client: client, collection: client.Database(database).Collection(collection)}, nil
}

// counterDoc/floatDoc mirror the accumulator snapshots stored per write.
type counterDoc struct {
	Name       string    `bson:"name"`
	Value      int64     `bson:"value"`
	RecordedAt time.Time `bson:"recorded_at"`
}

type floatDoc struct {
	Name       string    `bson:"name"`
	Count      int64     `bson:"count"`
	Mean       float64   `bson:"mean"`
	Min        float64   `bson:"min"`
	Max        float64   `bson:"max"`
	RecordedAt time.Time `bson:"recorded_at"`
}

// RecordCounter persists one Counter's current value.
func (s *Store) RecordCounter(ctx context.Context, name string, c *stats.Counter, recordedAt time.Time) error {
	_, err := s.collection.InsertOne(ctx, counterDoc{Name: name, Value: c.Value(), RecordedAt: recordedAt})
	if err != nil {
		return fmt.Errorf("statsstore: recording counter %q: %w", name, err)
	}
	return nil
}

// RecordFloat persists one Float accumulator's current snapshot.
func (s *Store) RecordFloat(ctx context.Context, name string, f *stats.Float, recordedAt time.Time) error {
	snap := f.Snapshot()
	_, err := s.collection.InsertOne(ctx, floatDoc{
		Name: name, Count: snap.Count, Mean: snap.Mean, Min: snap.Min, Max: snap.Max, RecordedAt: recordedAt,
	})
	if err != nil {
		return fmt.Errorf("statsstore: recording float %q: %w", name, err)
	}
	return nil
}

// LatestCounterValue returns the most recently recorded value for name.
func (s *Store) LatestCounterValue(ctx context.Context, name string) (int64, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "recorded_at", Value: -1}})
	var doc counterDoc
	if err := s.collection.FindOne(ctx, bson.D{{Key: "name", Value: name}}, opts).Decode(&doc); err != nil {
		return 0, fmt.Errorf("statsstore: reading latest %q: %w", name, err)
	}
	return doc.Value, nil
}

// Close disconnects from Mongo.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("statsstore: disconnect: %w", err)
	}
	return nil
}
