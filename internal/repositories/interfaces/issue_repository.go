package interfaces

import (
	"context"
	"time"

	"sahayak/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IssueRepository interface {
	Create(ctx context.Context, issue *models.Issue) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	// List returns every issue, newest first.
	List(ctx context.Context) ([]*models.Issue, error)

	// AddResponder appends responder atomically. It fails with
	// ErrDuplicateResponder when the user is already present and with
	// ErrIssueClosed when the issue is resolved.
	AddResponder(ctx context.Context, id primitive.ObjectID, responder models.Responder) error
	// MarkResponderResolved flips only the matching responder entry. It fails
	// with ErrResponderMissing when the user never accepted.
	MarkResponderResolved(ctx context.Context, id, userID primitive.ObjectID, at time.Time) error
	// MarkResolved overwrites status and resolvedAt on every call.
	MarkResolved(ctx context.Context, id primitive.ObjectID, at time.Time) error
}
