package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ridecare-backend/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type slotDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps one document per slot. With transactions enabled SetMany
// runs in a multi-document transaction (replica set required); otherwise it
// is an ordered bulk upsert that can stop part way.
type MongoStore struct {
	db           *mongo.Database
	coll         *mongo.Collection
	transactions bool
}

func NewMongoStore(ctx context.Context, db *mongo.Database, collection string, transactions bool) (*MongoStore, error) {
	coll := db.Collection(collection)
	if err := database.EnsureSlotIndexes(ctx, coll); err != nil {
		return nil, err
	}
	return &MongoStore{db: db, coll: coll, transactions: transactions}, nil
}

func (m *MongoStore) Get(ctx context.Context, key string) (string, error) {
	var doc slotDocument
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get slot %s: %w", key, err)
	}
	return doc.Value, nil
}

func (m *MongoStore) Set(ctx context.Context, key, value string) error {
	_, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to set slot %s: %w", key, err)
	}
	return nil
}

func (m *MongoStore) SetMany(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(entries))
	now := time.Now().UTC()
	for _, e := range entries {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": e.Key}).
			SetUpdate(bson.M{"$set": bson.M{"value": e.Value, "updated_at": now}}).
			SetUpsert(true))
	}

	if !m.transactions {
		if _, err := m.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
			return fmt.Errorf("failed to write %d slots: %w", len(entries), err)
		}
		return nil
	}

	session, err := m.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return m.coll.BulkWrite(sc, models, options.BulkWrite().SetOrdered(true))
	})
	if err != nil {
		return fmt.Errorf("failed to write %d slots in transaction: %w", len(entries), err)
	}
	return nil
}

func (m *MongoStore) Atomic() bool { return m.transactions }

func (m *MongoStore) Ping(ctx context.Context) error {
	return database.Health(ctx, m.db)
}

// Close is a no-op: the client is disconnected by its owner.
func (m *MongoStore) Close() error { return nil }
