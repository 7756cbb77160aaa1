package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sahayak/internal/models"
	"sahayak/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type issueRepository struct {
	collection *mongo.Collection
}

func NewIssueRepository(db *mongo.Database) interfaces.IssueRepository {
	return &issueRepository{
		collection: db.Collection(CollectionPosts),
	}
}

func (r *issueRepository) Create(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	// $push fails on a null array, so responders must start as [].
	if issue.Responders == nil {
		issue.Responders = []models.Responder{}
	}
	if issue.MediaURLs == nil {
		issue.MediaURLs = []string{}
	}
	if issue.ResolutionProof == nil {
		issue.ResolutionProof = []string{}
	}
	issue.UpdatedAt = issue.ReportedAt

	if _, err := r.collection.InsertOne(ctx, issue); err != nil {
		return fmt.Errorf("failed to create issue: %w", err)
	}
	return nil
}

func (r *issueRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return &issue, nil
}

func (r *issueRepository) List(ctx context.Context) ([]*models.Issue, error) {
	opts := options.Find().SetSort(bson.D{{Key: "reported_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer cursor.Close(ctx)

	var issues []*models.Issue
	for cursor.Next(ctx) {
		var issue models.Issue
		if err := cursor.Decode(&issue); err != nil {
			return nil, fmt.Errorf("failed to decode issue: %w", err)
		}
		issues = append(issues, &issue)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return issues, nil
}

func (r *issueRepository) AddResponder(ctx context.Context, id primitive.ObjectID, responder models.Responder) error {
	filter := bson.M{
		"_id":                id,
		"status":             bson.M{"$ne": models.IssueStatusResolved},
		"responders.user_id": bson.M{"$ne": responder.UserID},
	}
	update := bson.M{
		"$push": bson.M{"responders": responder},
		"$set": bson.M{
			"status":     models.IssueStatusInProgress,
			"updated_at": responder.AcceptedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add responder: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	return r.explainMiss(ctx, id, responder.UserID, interfaces.ErrDuplicateResponder)
}

func (r *issueRepository) MarkResponderResolved(ctx context.Context, id, userID primitive.ObjectID, at time.Time) error {
	filter := bson.M{
		"_id":                id,
		"status":             bson.M{"$ne": models.IssueStatusResolved},
		"responders.user_id": userID,
	}
	update := bson.M{
		"$set": bson.M{
			"responders.$.status":      models.IssueStatusResolved,
			"responders.$.resolved_at": at,
			"updated_at":               at,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark responder resolved: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	return r.explainMiss(ctx, id, userID, interfaces.ErrResponderMissing)
}

func (r *issueRepository) MarkResolved(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"status":      models.IssueStatusResolved,
			"resolved_at": at,
			"updated_at":  at,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to mark issue resolved: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

// explainMiss turns a zero-match conditional update into the sentinel that
// describes why the filter did not match.
func (r *issueRepository) explainMiss(ctx context.Context, id, userID primitive.ObjectID, responderErr error) error {
	issue, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if issue.IsResolved() {
		return interfaces.ErrIssueClosed
	}
	hasResponder := issue.HasResponder(userID)
	if errors.Is(responderErr, interfaces.ErrDuplicateResponder) && hasResponder {
		return interfaces.ErrDuplicateResponder
	}
	if errors.Is(responderErr, interfaces.ErrResponderMissing) && !hasResponder {
		return interfaces.ErrResponderMissing
	}
	return fmt.Errorf("issue %s changed concurrently", id.Hex())
}
