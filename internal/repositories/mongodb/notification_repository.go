package mongodb

import (
	"context"
	"fmt"
	"time"

	"sahayak/internal/models"
	"sahayak/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type notificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) interfaces.NotificationRepository {
	return &notificationRepository{
		collection: db.Collection(CollectionNotifications),
	}
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, len(notifications))
	for i, notification := range notifications {
		if notification.ID.IsZero() {
			notification.ID = primitive.NewObjectID()
		}
		if notification.CreatedAt.IsZero() {
			notification.CreatedAt = now
		}
		notification.UpdatedAt = notification.CreatedAt
		docs[i] = notification
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"user_id": userID}, opts)
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID primitive.ObjectID) error {
	now := time.Now()
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true, "read_at": now, "updated_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) UpdateDelivery(ctx context.Context, id primitive.ObjectID, status models.DeliveryStatus, lastError string) error {
	update := bson.M{
		"$set": bson.M{
			"delivery_status": status,
			"last_error":      lastError,
			"updated_at":      time.Now(),
		},
		"$inc": bson.M{"attempts": 1},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update notification delivery: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) ListUndelivered(ctx context.Context, maxAttempts, limit int, staleBefore time.Time) ([]*models.Notification, error) {
	filter := bson.M{
		"attempts": bson.M{"$lt": maxAttempts},
		"$or": []bson.M{
			{"delivery_status": models.DeliveryStatusFailed},
			{"delivery_status": models.DeliveryStatusPending, "created_at": bson.M{"$lt": staleBefore}},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, opts)
}

func (r *notificationRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Notification, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []*models.Notification
	for cursor.Next(ctx) {
		var notification models.Notification
		if err := cursor.Decode(&notification); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		notifications = append(notifications, &notification)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return notifications, nil
}
