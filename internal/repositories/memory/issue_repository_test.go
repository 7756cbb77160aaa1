package memory

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

func newIssue(t *testing.T, repo interfaces.IssueRepository) *models.Issue {
	t.Helper()
	issue := &models.Issue{
		UserID:     primitive.NewObjectID(),
		Status:     models.IssueStatusInProgress,
		Severity:   models.SeverityOrange,
		ReportedAt: time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), issue))
	return issue
}

func TestIssueRepository_CreateNormalizesSlices(t *testing.T) {
	repo := NewIssueRepository()
	issue := newIssue(t, repo)

	got, err := repo.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Responders)
	assert.Empty(t, got.Responders)
	assert.NotNil(t, got.MediaURLs)
}

func TestIssueRepository_GetByIDMissing(t *testing.T) {
	repo := NewIssueRepository()
	_, err := repo.GetByID(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestIssueRepository_ReturnsCopies(t *testing.T) {
	repo := NewIssueRepository()
	issue := newIssue(t, repo)

	got, err := repo.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	got.Responders = append(got.Responders, models.Responder{UserID: primitive.NewObjectID()})

	again, err := repo.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Responders)
}

func TestIssueRepository_AddResponder(t *testing.T) {
	ctx := context.Background()
	repo := NewIssueRepository()
	issue := newIssue(t, repo)
	responder := models.Responder{UserID: primitive.NewObjectID(), AcceptedAt: time.Now(), Status: models.IssueStatusInProgress}

	require.NoError(t, repo.AddResponder(ctx, issue.ID, responder))
	assert.ErrorIs(t, repo.AddResponder(ctx, issue.ID, responder), interfaces.ErrDuplicateResponder)
	assert.ErrorIs(t, repo.AddResponder(ctx, primitive.NewObjectID(), responder), interfaces.ErrNotFound)

	require.NoError(t, repo.MarkResolved(ctx, issue.ID, time.Now()))
	other := models.Responder{UserID: primitive.NewObjectID(), AcceptedAt: time.Now(), Status: models.IssueStatusInProgress}
	assert.ErrorIs(t, repo.AddResponder(ctx, issue.ID, other), interfaces.ErrIssueClosed)
}

func TestIssueRepository_AddResponderConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewIssueRepository()
	issue := newIssue(t, repo)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := models.Responder{UserID: primitive.NewObjectID(), AcceptedAt: time.Now(), Status: models.IssueStatusInProgress}
			assert.NoError(t, repo.AddResponder(ctx, issue.ID, r))
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Len(t, got.Responders, n)
}

func TestIssueRepository_MarkResponderResolved(t *testing.T) {
	ctx := context.Background()
	repo := NewIssueRepository()
	issue := newIssue(t, repo)
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	require.NoError(t, repo.AddResponder(ctx, issue.ID, models.Responder{UserID: a, AcceptedAt: time.Now(), Status: models.IssueStatusInProgress}))
	require.NoError(t, repo.AddResponder(ctx, issue.ID, models.Responder{UserID: b, AcceptedAt: time.Now(), Status: models.IssueStatusInProgress}))

	require.NoError(t, repo.MarkResponderResolved(ctx, issue.ID, a, time.Now()))
	assert.ErrorIs(t, repo.MarkResponderResolved(ctx, issue.ID, primitive.NewObjectID(), time.Now()), interfaces.ErrResponderMissing)

	got, err := repo.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IssueStatusInProgress, got.Status)
	assert.Equal(t, models.IssueStatusResolved, got.Responders[0].Status)
	assert.NotNil(t, got.Responders[0].ResolvedAt)
	assert.Equal(t, models.IssueStatusInProgress, got.Responders[1].Status)
	assert.Nil(t, got.Responders[1].ResolvedAt)
}

func TestIssueRepository_MarkResolvedOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewIssueRepository()
	issue := newIssue(t, repo)

	first := time.Now().Add(-time.Minute)
	second := time.Now()
	require.NoError(t, repo.MarkResolved(ctx, issue.ID, first))
	require.NoError(t, repo.MarkResolved(ctx, issue.ID, second))

	got, err := repo.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IssueStatusResolved, got.Status)
	require.NotNil(t, got.ResolvedAt)
	assert.True(t, got.ResolvedAt.Equal(second))
}

func TestIssueRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewIssueRepository()
	base := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Issue{ReportedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	issues, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 3)
	assert.True(t, issues[0].ReportedAt.After(issues[1].ReportedAt))
	assert.True(t, issues[1].ReportedAt.After(issues[2].ReportedAt))
}
