package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"sahayak/pkg/database"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// setupTestDB connects to MONGODB_TEST_URI (default localhost) and returns a
// throwaway database that is dropped when the test ends.
func setupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	db, err := database.NewMongoDB(context.Background(), &database.DatabaseConfig{
		URI:            uri,
		Database:       "sahayak_test_" + primitive.NewObjectID().Hex(),
		MaxPoolSize:    20,
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
	return db.Database
}
