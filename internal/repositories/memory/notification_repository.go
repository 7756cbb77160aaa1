package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"sahayak/internal/models"
	"sahayak/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type notificationRepository struct {
	mu            sync.RWMutex
	notifications map[primitive.ObjectID]*models.Notification
}

func NewNotificationRepository() interfaces.NotificationRepository {
	return &notificationRepository{
		notifications: make(map[primitive.ObjectID]*models.Notification),
	}
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, n := range notifications {
		if n.ID.IsZero() {
			n.ID = primitive.NewObjectID()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		n.UpdatedAt = n.CreatedAt
		c := *n
		r.notifications[n.ID] = &c
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			c := *n
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return interfaces.ErrNotFound
	}
	if !n.Read {
		now := time.Now()
		n.Read = true
		n.ReadAt = &now
		n.UpdatedAt = now
	}
	return nil
}

func (r *notificationRepository) UpdateDelivery(ctx context.Context, id primitive.ObjectID, status models.DeliveryStatus, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	n.DeliveryStatus = status
	n.LastError = lastError
	n.Attempts++
	n.UpdatedAt = time.Now()
	return nil
}

func (r *notificationRepository) ListUndelivered(ctx context.Context, maxAttempts, limit int, staleBefore time.Time) ([]*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Notification
	for _, n := range r.notifications {
		if n.Attempts >= maxAttempts {
			continue
		}
		switch {
		case n.DeliveryStatus == models.DeliveryStatusFailed:
		case n.DeliveryStatus == models.DeliveryStatusPending && n.CreatedAt.Before(staleBefore):
		default:
			continue
		}
		c := *n
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
