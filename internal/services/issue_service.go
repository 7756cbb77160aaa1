package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"sahayak/internal/config"
	"sahayak/internal/metrics"
	"sahayak/internal/models"
	"sahayak/internal/repositories/interfaces"
	"sahayak/internal/utils"
	"sahayak/pkg/lock"
	"sahayak/pkg/logger"
	"sahayak/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IssueService interface {
	SubmitIssue(ctx context.Context, request *SubmitIssueRequest) (*models.Issue, error)
	// ListPosts returns every issue newest first, enriched with reporter and
	// responder names.
	ListPosts(ctx context.Context) ([]*models.PostView, error)
	GetIssue(ctx context.Context, issueID primitive.ObjectID) (*models.Issue, error)

	AcceptHelp(ctx context.Context, issueID, userID primitive.ObjectID) error
	ResponderMarkResolved(ctx context.Context, issueID, userID primitive.ObjectID) error
	// MarkResolved closes the issue. Repeated calls overwrite resolvedAt.
	MarkResolved(ctx context.Context, issueID primitive.ObjectID) error
	// ResolveAsIssuer is MarkResolved guarded by an issuer check.
	ResolveAsIssuer(ctx context.Context, issueID, userID primitive.ObjectID) error
}

// Classifier scores a description with an urgency of 0, 1 or 2.
type Classifier interface {
	Categorize(ctx context.Context, description string) (int, error)
}

type MediaFile struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type SubmitIssueRequest struct {
	UserID      primitive.ObjectID
	Description string
	Location    models.GeoPoint
	Media       []MediaFile
	Voice       []MediaFile
}

type issueService struct {
	issueRepo     interfaces.IssueRepository
	userRepo      interfaces.UserRepository
	storage       storage.StorageProvider
	classifier    Classifier
	notifications NotificationService
	locker        lock.Locker
	lifecycle     *config.LifecycleConfig
	signedURLTTL  time.Duration
	logger        *logger.Logger
	now           func() time.Time
}

func NewIssueService(
	issueRepo interfaces.IssueRepository,
	userRepo interfaces.UserRepository,
	storageProvider storage.StorageProvider,
	classifier Classifier,
	notifications NotificationService,
	locker lock.Locker,
	lifecycle *config.LifecycleConfig,
	storageConfig *config.StorageConfig,
	log *logger.Logger,
) IssueService {
	return &issueService{
		issueRepo:     issueRepo,
		userRepo:      userRepo,
		storage:       storageProvider,
		classifier:    classifier,
		notifications: notifications,
		locker:        locker,
		lifecycle:     lifecycle,
		signedURLTTL:  storageConfig.SignedURLTTL,
		logger:        log,
		now:           utils.NowUTC,
	}
}

func (s *issueService) SubmitIssue(ctx context.Context, request *SubmitIssueRequest) (*models.Issue, error) {
	issue, err := s.submit(ctx, request)
	metrics.IssueSubmissionsTotal.WithLabelValues(submissionResult(err)).Inc()
	if err != nil {
		return nil, err
	}

	// The issue is durable at this point; fan-out failures are only logged.
	s.fanOut(ctx, issue)
	return issue, nil
}

func (s *issueService) submit(ctx context.Context, request *SubmitIssueRequest) (*models.Issue, error) {
	if !utils.IsValidCoordinates(request.Location.Lat, request.Location.Lng) {
		return nil, ErrInvalidLocation
	}
	if utf8.RuneCountInString(request.Description) > utils.MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}

	mediaURLs := make([]string, 0, len(request.Media)+len(request.Voice))
	for _, batch := range []struct {
		kind  storage.MediaKind
		files []MediaFile
	}{
		{storage.MediaKindMedia, request.Media},
		{storage.MediaKindVoice, request.Voice},
	} {
		for _, file := range batch.files {
			url, err := s.uploadMedia(ctx, request.UserID, batch.kind, file)
			if err != nil {
				return nil, err
			}
			mediaURLs = append(mediaURLs, url)
		}
	}

	urgency, err := s.classifier.Categorize(ctx, request.Description)
	if err != nil {
		return nil, &ClassificationError{Err: err}
	}
	severity, ok := models.SeverityFromUrgency(urgency)
	if !ok {
		return nil, &ClassificationError{Err: fmt.Errorf("urgency %d is out of range", urgency)}
	}

	now := s.now()
	issue := &models.Issue{
		UserID:            request.UserID,
		Location:          request.Location,
		IssueType:         utils.IssueTypeBasicHelp,
		Status:            models.IssueStatusInProgress,
		Severity:          severity,
		Description:       request.Description,
		MediaURLs:         mediaURLs,
		Responders:        []models.Responder{},
		ResolutionProof:   []string{},
		NotifyAuthorities: true,
		AuthorityType:     utils.AuthorityAmbulance,
		AIVerified:        true,
		FlaggedByAI:       false,
		ReportedAt:        now,
		UpdatedAt:         now,
	}
	if err := s.issueRepo.Create(ctx, issue); err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	s.logger.LogIssueEvent(issue.ID, utils.EventIssueSubmitted, logger.Fields{
		"user_id":  request.UserID.Hex(),
		"severity": severity,
		"media":    len(mediaURLs),
	})
	return issue, nil
}

func (s *issueService) uploadMedia(ctx context.Context, userID primitive.ObjectID, kind storage.MediaKind, file MediaFile) (string, error) {
	key := storage.IssueMediaKey(userID.Hex(), kind, file.Filename)
	_, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:         key,
		Reader:      file.Reader,
		ContentType: utils.DetectContentType(file.Filename, file.ContentType),
		Size:        file.Size,
		Metadata:    map[string]string{"user_id": userID.Hex()},
	})
	if err != nil {
		return "", &StorageError{Key: key, Err: err}
	}

	url, err := s.storage.GetURL(ctx, key, s.signedURLTTL)
	if err != nil {
		return "", &StorageError{Key: key, Err: err}
	}
	return url, nil
}

// fanOut notifies every user within the notify radius of the issue except
// the reporter.
func (s *issueService) fanOut(ctx context.Context, issue *models.Issue) {
	ctx, cancel := s.sideEffectContext(ctx)
	defer cancel()

	log := s.logger.WithIssueID(issue.ID)
	center := utils.Point{Lat: issue.Location.Lat, Lng: issue.Location.Lng}
	radius := s.lifecycle.NotifyRadiusKM

	users, err := s.userRepo.FindInBounds(ctx, utils.BoundingBox(center, radius))
	if err != nil {
		log.WithError(err).Error("Failed to load nearby users")
		return
	}

	var candidates []primitive.ObjectID
	for _, user := range users {
		if user.ID == issue.UserID || user.Location == nil {
			continue
		}
		if utils.IsWithinRadius(center.Lat, center.Lng, user.Location.Lat, user.Location.Lng, radius) {
			candidates = append(candidates, user.ID)
		}
	}

	body := strings.TrimSpace(issue.Description)
	if body == "" {
		body = utils.NearbyHelpFallback
	}

	result, err := s.notifications.Notify(ctx, &NotifyRequest{
		CandidateUserIDs: candidates,
		ExcludeUserID:    issue.UserID,
		IssueID:          issue.ID,
		Title:            utils.NearbyHelpTitle,
		Body:             body,
		Event:            utils.EventIssueSubmitted,
	})
	if result != nil {
		metrics.FanoutRecipients.Observe(float64(len(result.Recipients)))
	}
	if err != nil {
		log.WithError(err).Warn("Nearby fan-out incomplete")
	}
}

func (s *issueService) ListPosts(ctx context.Context) ([]*models.PostView, error) {
	issues, err := s.issueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	addID := func(id primitive.ObjectID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, issue := range issues {
		addID(issue.UserID)
		for _, r := range issue.Responders {
			addID(r.UserID)
		}
	}

	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) > 0 {
		users, err := s.userRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user names: %w", err)
		}
		for _, u := range users {
			names[u.ID] = u.Name
		}
	}

	views := make([]*models.PostView, 0, len(issues))
	for _, issue := range issues {
		views = append(views, toPostView(issue, names))
	}
	return views, nil
}

func toPostView(issue *models.Issue, names map[primitive.ObjectID]string) *models.PostView {
	responders := make([]models.ResponderView, 0, len(issue.Responders))
	for _, r := range issue.Responders {
		responders = append(responders, models.ResponderView{
			UserID:     r.UserID.Hex(),
			UserName:   names[r.UserID],
			AcceptedAt: utils.ToEpochMillis(r.AcceptedAt),
			Status:     r.Status,
			ResolvedAt: utils.ToEpochMillisPtr(r.ResolvedAt),
		})
	}

	mediaURLs := issue.MediaURLs
	if mediaURLs == nil {
		mediaURLs = []string{}
	}

	return &models.PostView{
		ID:                      issue.ID.Hex(),
		UserID:                  issue.UserID.Hex(),
		UserName:                names[issue.UserID],
		Location:                issue.Location,
		IssueType:               issue.IssueType,
		Status:                  issue.Status,
		Severity:                issue.Severity,
		Description:             issue.Description,
		MediaURLs:               mediaURLs,
		Responders:              responders,
		RespondersResolvedCount: issue.ResolvedResponderCount(),
		AIVerified:              issue.AIVerified,
		FlaggedByAI:             issue.FlaggedByAI,
		ReportedAt:              utils.ToEpochMillis(issue.ReportedAt),
		ResolvedAt:              utils.ToEpochMillisPtr(issue.ResolvedAt),
	}
}

func (s *issueService) GetIssue(ctx context.Context, issueID primitive.ObjectID) (*models.Issue, error) {
	issue, err := s.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		return nil, mapIssueError(err, "failed to get issue")
	}
	return issue, nil
}

func (s *issueService) AcceptHelp(ctx context.Context, issueID, userID primitive.ObjectID) error {
	issue, err := s.withIssueLock(ctx, issueID, func(issue *models.Issue) error {
		if issue.IsResolved() {
			return ErrIssueResolved
		}
		if issue.HasResponder(userID) {
			return ErrAlreadyAccepted
		}
		return s.issueRepo.AddResponder(ctx, issueID, models.Responder{
			UserID:     userID,
			AcceptedAt: s.now(),
			Status:     models.IssueStatusInProgress,
		})
	})
	metrics.IssueTransitionsTotal.WithLabelValues("accept", transitionResult(err)).Inc()
	if err != nil {
		return err
	}

	s.logger.LogIssueEvent(issueID, utils.EventHelpAccepted, logger.Fields{"responder_id": userID.Hex()})
	s.notifyIssuer(ctx, issue, userID, utils.HelpAcceptedTitle, utils.HelpAcceptedBody, utils.EventHelpAccepted)
	return nil
}

func (s *issueService) ResponderMarkResolved(ctx context.Context, issueID, userID primitive.ObjectID) error {
	issue, err := s.withIssueLock(ctx, issueID, func(issue *models.Issue) error {
		if issue.IsResolved() {
			return ErrIssueResolved
		}
		if !issue.HasResponder(userID) {
			return ErrNotAResponder
		}
		return s.issueRepo.MarkResponderResolved(ctx, issueID, userID, s.now())
	})
	metrics.IssueTransitionsTotal.WithLabelValues("responder_resolve", transitionResult(err)).Inc()
	if err != nil {
		return err
	}

	s.logger.LogIssueEvent(issueID, utils.EventResponderResolved, logger.Fields{"responder_id": userID.Hex()})
	s.notifyIssuer(ctx, issue, userID, utils.ResponderResolvedTitle, utils.ResponderResolvedBody, utils.EventResponderResolved)
	return nil
}

func (s *issueService) MarkResolved(ctx context.Context, issueID primitive.ObjectID) error {
	err := s.markResolved(ctx, issueID, nil)
	metrics.IssueTransitionsTotal.WithLabelValues("resolve", transitionResult(err)).Inc()
	return err
}

func (s *issueService) ResolveAsIssuer(ctx context.Context, issueID, userID primitive.ObjectID) error {
	err := s.markResolved(ctx, issueID, &userID)
	metrics.IssueTransitionsTotal.WithLabelValues("resolve", transitionResult(err)).Inc()
	return err
}

func (s *issueService) markResolved(ctx context.Context, issueID primitive.ObjectID, issuerID *primitive.ObjectID) error {
	_, err := s.withIssueLock(ctx, issueID, func(issue *models.Issue) error {
		if issuerID != nil && issue.UserID != *issuerID {
			return ErrNotIssuer
		}
		return s.issueRepo.MarkResolved(ctx, issueID, s.now())
	})
	if err != nil {
		return err
	}
	s.logger.LogIssueEvent(issueID, utils.EventIssueResolved, nil)
	return nil
}

// withIssueLock loads the issue under its per-issue lock and runs fn. The
// lock is released before returning so notifications never hold it.
func (s *issueService) withIssueLock(ctx context.Context, issueID primitive.ObjectID, fn func(issue *models.Issue) error) (*models.Issue, error) {
	release, err := s.locker.Acquire(ctx, issueID.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to lock issue %s: %w", issueID.Hex(), err)
	}
	defer release()

	issue, err := s.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		return nil, mapIssueError(err, "failed to get issue")
	}
	if err := fn(issue); err != nil {
		return nil, mapIssueError(err, "failed to update issue")
	}
	return issue, nil
}

func (s *issueService) notifyIssuer(ctx context.Context, issue *models.Issue, actorID primitive.ObjectID, title, body, event string) {
	ctx, cancel := s.sideEffectContext(ctx)
	defer cancel()

	_, err := s.notifications.Notify(ctx, &NotifyRequest{
		CandidateUserIDs: []primitive.ObjectID{issue.UserID},
		ExcludeUserID:    actorID,
		IssueID:          issue.ID,
		Title:            title,
		Body:             body,
		Event:            event,
	})
	if err != nil {
		s.logger.WithIssueID(issue.ID).WithError(err).Warn("Failed to notify issuer")
	}
}

// sideEffectContext keeps notifications running after the client hangs up.
func (s *issueService) sideEffectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.lifecycle.OperationTimeout)
}

// mapIssueError translates repository sentinels. Service errors pass through.
func mapIssueError(err error, msg string) error {
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		return ErrIssueNotFound
	case errors.Is(err, interfaces.ErrDuplicateResponder):
		return ErrAlreadyAccepted
	case errors.Is(err, interfaces.ErrResponderMissing):
		return ErrNotAResponder
	case errors.Is(err, interfaces.ErrIssueClosed):
		return ErrIssueResolved
	case errors.Is(err, ErrIssueNotFound), errors.Is(err, ErrAlreadyAccepted),
		errors.Is(err, ErrNotAResponder), errors.Is(err, ErrIssueResolved),
		errors.Is(err, ErrNotIssuer):
		return err
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

func submissionResult(err error) string {
	var storageErr *StorageError
	var classErr *ClassificationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &storageErr):
		return "storage_error"
	case errors.As(err, &classErr):
		return "classification_error"
	case errors.Is(err, ErrInvalidLocation), errors.Is(err, ErrDescriptionTooLong):
		return "invalid"
	default:
		return "error"
	}
}

func transitionResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrIssueNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyAccepted):
		return "already_accepted"
	case errors.Is(err, ErrNotAResponder):
		return "not_a_responder"
	case errors.Is(err, ErrIssueResolved):
		return "resolved"
	case errors.Is(err, ErrNotIssuer):
		return "forbidden"
	default:
		return "error"
	}
}
