package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sahayak/internal/models"
	"sahayak/internal/repositories/interfaces"
	"sahayak/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCacheTTL = 5 * time.Minute

type userRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewUserRepository(db *mongo.Database, cache CacheService) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection(CollectionUsers),
		cache:      cache,
	}
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if user := r.getUserFromCache(ctx, id); user != nil {
		return user, nil
	}

	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	r.cacheUser(ctx, &user)
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeUsers(ctx, cursor)
}

// FindInBounds narrows on the indexed location fields. The exact radius
// check happens in the caller.
func (r *userRepository) FindInBounds(ctx context.Context, bounds utils.Bounds) ([]*models.User, error) {
	filter := bson.M{
		"location.lat": bson.M{"$gte": bounds.Southwest.Lat, "$lte": bounds.Northeast.Lat},
	}
	if bounds.CrossesAntimeridian() {
		filter["$or"] = []bson.M{
			{"location.lng": bson.M{"$gte": bounds.Southwest.Lng}},
			{"location.lng": bson.M{"$lte": bounds.Northeast.Lng}},
		}
	} else {
		filter["location.lng"] = bson.M{"$gte": bounds.Southwest.Lng, "$lte": bounds.Northeast.Lng}
	}

	opts := options.Find().SetProjection(bson.M{"name": 1, "location": 1, "fcm_token": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find users in bounds: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeUsers(ctx, cursor)
}

func decodeUsers(ctx context.Context, cursor *mongo.Cursor) ([]*models.User, error) {
	var users []*models.User
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, &user)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return users, nil
}

func userCacheKey(id primitive.ObjectID) string {
	return fmt.Sprintf("user:%s", id.Hex())
}

// cachedUser carries the token, which models.User hides from JSON.
type cachedUser struct {
	models.User
	Token string `json:"fcm_token"`
}

func (r *userRepository) cacheUser(ctx context.Context, user *models.User) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Set(ctx, userCacheKey(user.ID), cachedUser{User: *user, Token: user.FCMToken}, userCacheTTL)
}

func (r *userRepository) getUserFromCache(ctx context.Context, id primitive.ObjectID) *models.User {
	if r.cache == nil {
		return nil
	}
	var cached cachedUser
	if err := r.cache.Get(ctx, userCacheKey(id), &cached); err != nil {
		return nil
	}
	user := cached.User
	user.ID = id
	user.FCMToken = cached.Token
	return &user
}
