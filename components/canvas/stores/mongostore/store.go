// Package mongostore persists canvas layouts in a MongoDB collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	canvas "github.com/goliatone/go-canvas/components/canvas"
)

// DefaultCollection holds one document per layout key.
const DefaultCollection = "canvas_layouts"

var errEmptyKey = errors.New("mongostore: key is empty")

type layoutDocument struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store implements canvas.LayoutStore on a MongoDB collection.
type Store struct {
	c *mongo.Collection
}

var _ canvas.LayoutStore = (*Store)(nil)

// New creates a store on the given database. An empty collection name uses
// DefaultCollection.
func New(db *mongo.Database, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{c: db.Collection(collection)}
}

// Connect dials uri and returns a store plus the client to disconnect later.
func Connect(ctx context.Context, uri, database, collection string) (*Store, *mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongostore: ping: %w", err)
	}
	return New(client.Database(database), collection), client, nil
}

// Get returns the stored document for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc layoutDocument
	err := s.c.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("mongostore: get %s: %w", key, err)
	}
	return doc.Value, true, nil
}

// Put upserts the document for key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errEmptyKey
	}
	update := bson.M{
		"$set": bson.M{
			"value":      value,
			"updated_at": time.Now().UTC(),
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": key}, update, opts); err != nil {
		return fmt.Errorf("mongostore: put %s: %w", key, err)
	}
	return nil
}

// Delete removes the document for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("mongostore: delete %s: %w", key, err)
	}
	return nil
}
