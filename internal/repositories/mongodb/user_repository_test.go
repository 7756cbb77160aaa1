package mongodb

import (
	"context"
	"testing"

	"sahayak/internal/models"
	"sahayak/internal/repositories/interfaces"
	"sahayak/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func insertUser(t *testing.T, db *mongo.Database, name string, lat, lng float64) primitive.ObjectID {
	t.Helper()
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Location: &models.GeoPoint{Lat: lat, Lng: lng},
		FCMToken: "tok-" + name,
	}
	_, err := db.Collection(CollectionUsers).InsertOne(context.Background(), user)
	require.NoError(t, err)
	return user.ID
}

func userNames(users []*models.User) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Name)
	}
	return names
}

func TestUserRepository_FindInBounds(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, nil)
	insertUser(t, db, "near", 12.9716, 77.5950)
	insertUser(t, db, "far", 13.5, 77.5946)

	users, err := repo.FindInBounds(context.Background(), utils.BoundingBox(utils.Point{Lat: 12.9716, Lng: 77.5946}, 2))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"near"}, userNames(users))
	assert.Equal(t, "tok-near", users[0].FCMToken)
}

func TestUserRepository_FindInBoundsAcrossAntimeridian(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, nil)
	insertUser(t, db, "east", 0, 179.995)
	insertUser(t, db, "west", 0, -179.995)
	insertUser(t, db, "greenwich", 0, 0)

	bounds := utils.BoundingBox(utils.Point{Lat: 0, Lng: 179.999}, 2)
	require.True(t, bounds.CrossesAntimeridian())

	users, err := repo.FindInBounds(context.Background(), bounds)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"east", "west"}, userNames(users))
}

func TestUserRepository_GetByIDsSkipsMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, nil)
	id := insertUser(t, db, "asha", 1, 1)

	users, err := repo.GetByIDs(context.Background(), []primitive.ObjectID{id, primitive.NewObjectID()})
	require.NoError(t, err)
	assert.Equal(t, []string{"asha"}, userNames(users))

	_, err = repo.GetByID(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}
