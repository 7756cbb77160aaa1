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

// issueRepository keeps issues in a map guarded by a single mutex. Every
// read returns a clone so callers cannot mutate stored state.
type issueRepository struct {
	mu     sync.RWMutex
	issues map[primitive.ObjectID]*models.Issue
}

func NewIssueRepository() interfaces.IssueRepository {
	return &issueRepository{
		issues: make(map[primitive.ObjectID]*models.Issue),
	}
}

func (r *issueRepository) Create(ctx context.Context, issue *models.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if issue.Responders == nil {
		issue.Responders = []models.Responder{}
	}
	if issue.MediaURLs == nil {
		issue.MediaURLs = []string{}
	}
	if issue.UpdatedAt.IsZero() {
		issue.UpdatedAt = issue.ReportedAt
	}

	r.issues[issue.ID] = issue.Clone()
	return nil
}

func (r *issueRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issue, ok := r.issues[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return issue.Clone(), nil
}

func (r *issueRepository) List(ctx context.Context) ([]*models.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issues := make([]*models.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		issues = append(issues, issue.Clone())
	}
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].ReportedAt.Equal(issues[j].ReportedAt) {
			return issues[i].ID.Hex() > issues[j].ID.Hex()
		}
		return issues[i].ReportedAt.After(issues[j].ReportedAt)
	})
	return issues, nil
}

func (r *issueRepository) AddResponder(ctx context.Context, id primitive.ObjectID, responder models.Responder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, ok := r.issues[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if issue.IsResolved() {
		return interfaces.ErrIssueClosed
	}
	if issue.HasResponder(responder.UserID) {
		return interfaces.ErrDuplicateResponder
	}

	issue.Responders = append(issue.Responders, responder)
	issue.Status = models.IssueStatusInProgress
	issue.UpdatedAt = responder.AcceptedAt
	return nil
}

func (r *issueRepository) MarkResponderResolved(ctx context.Context, id, userID primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, ok := r.issues[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if issue.IsResolved() {
		return interfaces.ErrIssueClosed
	}
	idx := issue.ResponderIndex(userID)
	if idx < 0 {
		return interfaces.ErrResponderMissing
	}

	resolvedAt := at
	issue.Responders[idx].Status = models.IssueStatusResolved
	issue.Responders[idx].ResolvedAt = &resolvedAt
	issue.UpdatedAt = at
	return nil
}

func (r *issueRepository) MarkResolved(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, ok := r.issues[id]
	if !ok {
		return interfaces.ErrNotFound
	}

	resolvedAt := at
	issue.Status = models.IssueStatusResolved
	issue.ResolvedAt = &resolvedAt
	issue.UpdatedAt = at
	return nil
}
