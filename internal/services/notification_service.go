package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sahayak/internal/config"
	"sahayak/internal/metrics"
	"sahayak/internal/models"
	"sahayak/internal/repositories/interfaces"
	"sahayak/internal/utils"
	"sahayak/pkg/logger"
	"sahayak/pkg/push"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pendingStaleAfter is how long a pending record may sit before the retrier
// assumes the original dispatch died mid-flight.
const pendingStaleAfter = 2 * time.Minute

type NotificationService interface {
	// Notify sends title/body to every candidate with a push token except
	// ExcludeUserID and persists one record per recipient. A *DeliveryError
	// is returned alongside the result when some pushes failed.
	Notify(ctx context.Context, request *NotifyRequest) (*NotifyResult, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.NotificationView, error)
	MarkAsRead(ctx context.Context, notificationID, userID primitive.ObjectID) error
	// RetryUndelivered re-sends failed and stale pending records and reports
	// how many were delivered.
	RetryUndelivered(ctx context.Context) (int, error)
}

type NotifyRequest struct {
	CandidateUserIDs []primitive.ObjectID
	ExcludeUserID    primitive.ObjectID
	IssueID          primitive.ObjectID
	Title            string
	Body             string
	Event            string
}

type NotifyResult struct {
	Recipients []primitive.ObjectID
	Delivered  int
	Failed     int
}

// RealtimeNotifier pushes a persisted notification to open sockets.
type RealtimeNotifier interface {
	SendUserNotification(userID primitive.ObjectID, notificationType string, data map[string]interface{})
}

type notificationService struct {
	userRepo         interfaces.UserRepository
	notificationRepo interfaces.NotificationRepository
	pushProvider     push.PushProvider
	realtime         RealtimeNotifier
	config           *config.OutboxConfig
	logger           *logger.Logger
	now              func() time.Time
}

func NewNotificationService(
	userRepo interfaces.UserRepository,
	notificationRepo interfaces.NotificationRepository,
	pushProvider push.PushProvider,
	realtime RealtimeNotifier,
	cfg *config.OutboxConfig,
	log *logger.Logger,
) NotificationService {
	return &notificationService{
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		pushProvider:     pushProvider,
		realtime:         realtime,
		config:           cfg,
		logger:           log,
		now:              utils.NowUTC,
	}
}

func (s *notificationService) Notify(ctx context.Context, request *NotifyRequest) (*NotifyResult, error) {
	result := &NotifyResult{}

	ids := make([]primitive.ObjectID, 0, len(request.CandidateUserIDs))
	seen := make(map[primitive.ObjectID]struct{}, len(request.CandidateUserIDs))
	for _, id := range request.CandidateUserIDs {
		if id == request.ExcludeUserID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return result, nil
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return result, fmt.Errorf("failed to resolve recipients: %w", err)
	}

	now := s.now()
	var (
		records []*models.Notification
		tokens  []string
	)
	for _, user := range users {
		if user.ID == request.ExcludeUserID || !user.HasPushToken() {
			continue
		}
		records = append(records, &models.Notification{
			UserID:         user.ID,
			IssueID:        request.IssueID,
			Title:          request.Title,
			Body:           request.Body,
			DeliveryStatus: models.DeliveryStatusPending,
			CreatedAt:      now,
		})
		tokens = append(tokens, user.FCMToken)
	}
	if len(records) == 0 {
		return result, nil
	}

	if err := s.notificationRepo.CreateBatch(ctx, records); err != nil {
		return result, fmt.Errorf("failed to persist notifications: %w", err)
	}
	for _, record := range records {
		result.Recipients = append(result.Recipients, record.UserID)
	}

	responses, sendErr := s.pushProvider.SendMulticast(ctx, &push.MulticastRequest{
		Tokens:   tokens,
		Title:    request.Title,
		Body:     request.Body,
		Data:     pushData(request.IssueID, request.Event),
		Priority: push.PriorityHigh,
	})

	var firstErr error
	for i, record := range records {
		status, reason := deliveryOutcome(responses, i, sendErr)
		if status == models.DeliveryStatusSent {
			result.Delivered++
		} else {
			result.Failed++
			if firstErr == nil {
				firstErr = errors.New(reason)
			}
		}
		if err := s.notificationRepo.UpdateDelivery(ctx, record.ID, status, reason); err != nil {
			s.logger.WithError(err).WithField("notification_id", record.ID.Hex()).Warn("Failed to record delivery outcome")
		}
		s.publishRealtime(record, request.Event)
	}

	metrics.NotificationsTotal.WithLabelValues("sent").Add(float64(result.Delivered))
	metrics.NotificationsTotal.WithLabelValues("failed").Add(float64(result.Failed))
	s.logger.LogNotificationDispatch(request.IssueID, len(records), result.Delivered, result.Failed)

	if result.Failed > 0 {
		if sendErr != nil {
			firstErr = sendErr
		}
		return result, &DeliveryError{Failed: result.Failed, Err: firstErr}
	}
	return result, nil
}

// deliveryOutcome reads the i-th multicast response. A batch-level error
// fails every token.
func deliveryOutcome(responses []*push.NotificationResponse, i int, batchErr error) (models.DeliveryStatus, string) {
	if batchErr != nil {
		return models.DeliveryStatusFailed, batchErr.Error()
	}
	if i >= len(responses) || responses[i] == nil {
		return models.DeliveryStatusFailed, "no response from push provider"
	}
	if !responses[i].Success {
		reason := responses[i].Error
		if reason == "" {
			reason = "push rejected"
		}
		return models.DeliveryStatusFailed, reason
	}
	return models.DeliveryStatusSent, ""
}

func pushData(issueID primitive.ObjectID, event string) map[string]string {
	data := map[string]string{"issueId": issueID.Hex()}
	if event != "" {
		data["type"] = event
	}
	return data
}

func (s *notificationService) publishRealtime(record *models.Notification, event string) {
	if s.realtime == nil {
		return
	}
	s.realtime.SendUserNotification(record.UserID, utils.EventNotificationQueued, map[string]interface{}{
		"id":        record.ID.Hex(),
		"issueId":   record.IssueID.Hex(),
		"title":     record.Title,
		"body":      record.Body,
		"event":     event,
		"createdAt": utils.ToEpochMillis(record.CreatedAt),
	})
}

func (s *notificationService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.NotificationView, error) {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	views := make([]*models.NotificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, n.View())
	}
	return views, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, notificationID, userID primitive.ObjectID) error {
	if err := s.notificationRepo.MarkAsRead(ctx, notificationID, userID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

func (s *notificationService) RetryUndelivered(ctx context.Context) (int, error) {
	staleBefore := s.now().Add(-pendingStaleAfter)
	pending, err := s.notificationRepo.ListUndelivered(ctx, s.config.MaxAttempts, s.config.BatchSize, staleBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to list undelivered notifications: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	userIDs := make([]primitive.ObjectID, 0, len(pending))
	for _, n := range pending {
		userIDs = append(userIDs, n.UserID)
	}
	users, err := s.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve recipients: %w", err)
	}
	tokens := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		if u.HasPushToken() {
			tokens[u.ID] = u.FCMToken
		}
	}

	delivered := 0
	for _, n := range pending {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}

		status, reason := models.DeliveryStatusFailed, "recipient has no push token"
		if token, ok := tokens[n.UserID]; ok {
			resp, err := s.pushProvider.SendNotification(ctx, &push.NotificationRequest{
				Token:    token,
				Title:    n.Title,
				Body:     n.Body,
				Data:     pushData(n.IssueID, ""),
				Priority: push.PriorityHigh,
			})
			status, reason = deliveryOutcome([]*push.NotificationResponse{resp}, 0, err)
		}

		if status == models.DeliveryStatusSent {
			delivered++
			metrics.NotificationsTotal.WithLabelValues("sent").Inc()
		} else {
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		}
		if err := s.notificationRepo.UpdateDelivery(ctx, n.ID, status, reason); err != nil {
			s.logger.WithError(err).WithField("notification_id", n.ID.Hex()).Warn("Failed to record retry outcome")
		}
	}

	s.logger.WithFields(logger.Fields{
		"attempted": len(pending),
		"delivered": delivered,
	}).Info("Retried undelivered notifications")
	return delivered, nil
}
