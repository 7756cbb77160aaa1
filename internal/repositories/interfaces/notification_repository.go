package interfaces

import (
	"context"
	"time"

	"sahayak/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []*models.Notification) error
	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Notification, error)
	// MarkAsRead returns ErrNotFound unless the notification belongs to userID.
	MarkAsRead(ctx context.Context, id, userID primitive.ObjectID) error
	// UpdateDelivery records a delivery attempt.
	UpdateDelivery(ctx context.Context, id primitive.ObjectID, status models.DeliveryStatus, lastError string) error
	// ListUndelivered returns notifications with fewer than maxAttempts
	// attempts that either failed or are still pending from before staleBefore,
	// oldest first.
	ListUndelivered(ctx context.Context, maxAttempts, limit int, staleBefore time.Time) ([]*models.Notification, error)
}
