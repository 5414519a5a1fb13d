package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"ridecare-backend/pkg/database"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server only when RIDECARE_TEST_MONGO_URI is set.
func newTestMongoStore(t *testing.T) *MongoStore {
	t.Helper()

	uri := os.Getenv("RIDECARE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("RIDECARE_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, uri, "ridecare_test", nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = database.Disconnect(db.Client())
	})

	store, err := NewMongoStore(ctx, db, "slots_"+uuid.NewString()[:8], false)
	require.NoError(t, err)
	return store
}

func TestMongoStore_GetSet(t *testing.T) {
	store := newTestMongoStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "user")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "user", `{"id":"u1"}`))
	require.NoError(t, store.Set(ctx, "user", `{"id":"u2"}`))

	got, err := store.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"u2"}`, got)
}

func TestMongoStore_SetMany(t *testing.T) {
	store := newTestMongoStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetMany(ctx, []Entry{
		{Key: "vehicles", Value: "[]"},
		{Key: "maintenanceAlerts", Value: "[]"},
	}))

	for _, key := range []string{"vehicles", "maintenanceAlerts"} {
		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "[]", got)
	}
	assert.False(t, store.Atomic())
	assert.NoError(t, store.Ping(ctx))
}

func TestMongoStore_CreatesSlotIndex(t *testing.T) {
	store := newTestMongoStore(t)
	ctx := context.Background()

	cursor, err := store.coll.Indexes().List(ctx)
	require.NoError(t, err)

	var indexes []bson.M
	require.NoError(t, cursor.All(ctx, &indexes))

	names := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		names = append(names, idx["name"].(string))
	}
	assert.Contains(t, names, "updated_at_-1")
}
