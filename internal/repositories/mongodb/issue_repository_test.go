package mongodb

import (
	"context"
	"sync"
	"testing"
	"time"

	"sahayak/internal/models"
	"sahayak/internal/repositories/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func createIssue(t *testing.T, repo interfaces.IssueRepository) *models.Issue {
	t.Helper()
	issue := &models.Issue{
		UserID:     primitive.NewObjectID(),
		Status:     models.IssueStatusInProgress,
		Severity:   models.SeverityRed,
		ReportedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.Create(context.Background(), issue))
	return issue
}

func responder(userID primitive.ObjectID) models.Responder {
	return models.Responder{
		UserID:     userID,
		AcceptedAt: time.Now().UTC().Truncate(time.Millisecond),
		Status:     models.IssueStatusInProgress,
	}
}

func TestIssueRepository_CreateStoresEmptyArrays(t *testing.T) {
	repo := NewIssueRepository(setupTestDB(t))
	issue := createIssue(t, repo)

	got, err := repo.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Responders)
	assert.Empty(t, got.Responders)

	_, err = repo.GetByID(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestIssueRepository_AddResponderRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewIssueRepository(setupTestDB(t))
	issue := createIssue(t, repo)
	user := primitive.NewObjectID()

	require.NoError(t, repo.AddResponder(ctx, issue.ID, responder(user)))
	err := repo.AddResponder(ctx, issue.ID, responder(user))
	assert.ErrorIs(t, err, interfaces.ErrDuplicateResponder)

	got, err := repo.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Len(t, got.Responders, 1)
}

func TestIssueRepository_AddResponderOnResolvedIssue(t *testing.T) {
	ctx := context.Background()
	repo := NewIssueRepository(setupTestDB(t))
	issue := createIssue(t, repo)
	require.NoError(t, repo.MarkResolved(ctx, issue.ID, time.Now()))

	err := repo.AddResponder(ctx, issue.ID, responder(primitive.NewObjectID()))
	assert.ErrorIs(t, err, interfaces.ErrIssueClosed)

	err = repo.AddResponder(ctx, primitive.NewObjectID(), responder(primitive.NewObjectID()))
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestIssueRepository_ConcurrentDistinctAccepts(t *testing.T) {
	ctx := context.Background()
	repo := NewIssueRepository(setupTestDB(t))
	issue := createIssue(t, repo)

	const n = 25
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.AddResponder(ctx, issue.ID, responder(primitive.NewObjectID()))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	got, err := repo.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Len(t, got.Responders, n)
}

func TestIssueRepository_ConcurrentSameUserAccepts(t *testing.T) {
	ctx := context.Background()
	repo := NewIssueRepository(setupTestDB(t))
	issue := createIssue(t, repo)
	user := primitive.NewObjectID()

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.AddResponder(ctx, issue.ID, responder(user))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, interfaces.ErrDuplicateResponder)
	}
	assert.Equal(t, 1, succeeded)
}

func TestIssueRepository_MarkResponderResolvedTouchesOnlyThatResponder(t *testing.T) {
	ctx := context.Background()
	repo := NewIssueRepository(setupTestDB(t))
	issue := createIssue(t, repo)
	first, second, third := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	for _, user := range []primitive.ObjectID{first, second, third} {
		require.NoError(t, repo.AddResponder(ctx, issue.ID, responder(user)))
	}

	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.MarkResponderResolved(ctx, issue.ID, second, at))

	got, err := repo.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, got.Responders, 3)
	for _, r := range got.Responders {
		if r.UserID == second {
			assert.Equal(t, models.IssueStatusResolved, r.Status)
			require.NotNil(t, r.ResolvedAt)
			assert.True(t, at.Equal(*r.ResolvedAt))
			continue
		}
		assert.Equal(t, models.IssueStatusInProgress, r.Status)
		assert.Nil(t, r.ResolvedAt)
	}
	assert.Equal(t, models.IssueStatusInProgress, got.Status)

	err = repo.MarkResponderResolved(ctx, issue.ID, primitive.NewObjectID(), at)
	assert.ErrorIs(t, err, interfaces.ErrResponderMissing)

	require.NoError(t, repo.MarkResolved(ctx, issue.ID, at))
	err = repo.MarkResponderResolved(ctx, issue.ID, first, at)
	assert.ErrorIs(t, err, interfaces.ErrIssueClosed)
}

func TestIssueRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewIssueRepository(setupTestDB(t))

	base := time.Now().UTC().Truncate(time.Millisecond)
	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		issue := &models.Issue{UserID: primitive.NewObjectID(), Status: models.IssueStatusInProgress, ReportedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(ctx, issue))
		ids = append(ids, issue.ID)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[0], list[2].ID)
}
