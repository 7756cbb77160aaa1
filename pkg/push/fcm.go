package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// fcmMulticastLimit is the most tokens FCM accepts in one multicast call.
const fcmMulticastLimit = 500

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type FCMProvider struct {
	client messagingClient
}

func NewFCMProvider(ctx context.Context, projectID, credentialsFile string) (*FCMProvider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &FCMProvider{
		client: client,
	}, nil
}

func (f *FCMProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	message := &messaging.Message{
		Token:        request.Token,
		Data:         request.Data,
		Notification: &messaging.Notification{Title: request.Title, Body: request.Body},
		Android:      androidConfig(request.Priority),
		APNS:         apnsConfig(request.Priority),
	}

	messageID, err := f.client.Send(ctx, message)
	if err != nil {
		return &NotificationResponse{
			Success: false,
			Error:   err.Error(),
			Token:   request.Token,
		}, err
	}

	return &NotificationResponse{
		MessageID: messageID,
		Success:   true,
		Token:     request.Token,
	}, nil
}

func (f *FCMProvider) SendMulticast(ctx context.Context, request *MulticastRequest) ([]*NotificationResponse, error) {
	responses := make([]*NotificationResponse, 0, len(request.Tokens))

	for start := 0; start < len(request.Tokens); start += fcmMulticastLimit {
		end := start + fcmMulticastLimit
		if end > len(request.Tokens) {
			end = len(request.Tokens)
		}
		tokens := request.Tokens[start:end]

		batch, err := f.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       tokens,
			Data:         request.Data,
			Notification: &messaging.Notification{Title: request.Title, Body: request.Body},
			Android:      androidConfig(request.Priority),
			APNS:         apnsConfig(request.Priority),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to send multicast notification: %w", err)
		}

		for i, r := range batch.Responses {
			resp := &NotificationResponse{Token: tokens[i], Success: r.Success, MessageID: r.MessageID}
			if r.Error != nil {
				resp.Error = r.Error.Error()
			}
			responses = append(responses, resp)
		}
	}

	return responses, nil
}

func androidConfig(priority string) *messaging.AndroidConfig {
	if priority == "" {
		priority = PriorityHigh
	}
	return &messaging.AndroidConfig{
		Priority: priority,
		Notification: &messaging.AndroidNotification{
			Sound: "default",
		},
	}
}

func apnsConfig(priority string) *messaging.APNSConfig {
	apnsPriority := "10"
	if priority == PriorityNormal {
		apnsPriority = "5"
	}
	return &messaging.APNSConfig{
		Headers: map[string]string{"apns-priority": apnsPriority},
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{Sound: "default"},
		},
	}
}
