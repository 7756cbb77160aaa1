package database

import (
	"context"
	"os"
	"testing"
	"time"

	"sahayak/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func setupTestMongo(t *testing.T) *MongoDB {
	t.Helper()

	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	db, err := NewMongoDB(context.Background(), &DatabaseConfig{
		URI:            uri,
		Database:       "sahayak_test_" + primitive.NewObjectID().Hex(),
		MaxPoolSize:    5,
		ConnectTimeout: 2 * time.Second,
		SocketTimeout:  10 * time.Second,
	})
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Database.Drop(ctx)
		_ = db.Close(ctx)
	})
	return db
}

func indexCount(t *testing.T, db *MongoDB, collection string) int {
	t.Helper()
	specs, err := db.Collection(collection).Indexes().ListSpecifications(context.Background())
	require.NoError(t, err)
	return len(specs)
}

func TestMigrator_UpAndDown(t *testing.T) {
	ctx := context.Background()
	db := setupTestMongo(t)
	migrator := NewMigrator(db.Database, logger.Discard())

	require.NoError(t, migrator.Up(ctx))
	version, err := migrator.getCurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(getMigrations()), version)
	assert.Greater(t, indexCount(t, db, "posts"), 1)
	assert.Greater(t, indexCount(t, db, "notifications"), 1)

	// Running again is a no-op.
	require.NoError(t, migrator.Up(ctx))

	require.NoError(t, migrator.Down(ctx, 1))
	version, err = migrator.getCurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.Greater(t, indexCount(t, db, "posts"), 1)
	// Only the _id index survives the rollback.
	assert.Equal(t, 1, indexCount(t, db, "notifications"))
	assert.Equal(t, 1, indexCount(t, db, "users"))

	count, err := db.Collection("migrations").CountDocuments(ctx, bson.D{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
