package push

import (
	"context"
	"fmt"

	"sahayak/pkg/logger"

	"github.com/google/uuid"
)

// LogProvider writes notifications to the log instead of sending them. Used
// in development when no Firebase project is configured.
type LogProvider struct {
	logger *logger.Logger
}

func NewLogProvider(log *logger.Logger) *LogProvider {
	return &LogProvider{logger: log}
}

func (p *LogProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	p.logger.WithFields(logger.Fields{
		"token": maskToken(request.Token),
		"title": request.Title,
		"body":  request.Body,
	}).Info("Push notification (log provider)")

	return &NotificationResponse{
		MessageID: uuid.NewString(),
		Success:   true,
		Token:     request.Token,
	}, nil
}

func (p *LogProvider) SendMulticast(ctx context.Context, request *MulticastRequest) ([]*NotificationResponse, error) {
	responses := make([]*NotificationResponse, len(request.Tokens))
	for i, token := range request.Tokens {
		resp, err := p.SendNotification(ctx, &NotificationRequest{
			Token: token,
			Title: request.Title,
			Body:  request.Body,
			Data:  request.Data,
		})
		if err != nil {
			return nil, err
		}
		responses[i] = resp
	}
	return responses, nil
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return fmt.Sprintf("%s…%s", token[:4], token[len(token)-4:])
}
