package interfaces

import (
	"context"

	"sahayak/internal/models"
	"sahayak/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// GetByIDs silently skips ids that do not exist.
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error)
	// FindInBounds returns users whose last known location lies inside bounds.
	FindInBounds(ctx context.Context, bounds utils.Bounds) ([]*models.User, error)
}
