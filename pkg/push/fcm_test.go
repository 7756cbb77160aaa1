package push

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMessagingClient struct {
	sendFn      func(ctx context.Context, message *messaging.Message) (string, error)
	multicastFn func(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
	batches     [][]string
}

func (m *mockMessagingClient) Send(ctx context.Context, message *messaging.Message) (string, error) {
	return m.sendFn(ctx, message)
}

func (m *mockMessagingClient) SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	m.batches = append(m.batches, message.Tokens)
	return m.multicastFn(ctx, message)
}

func TestFCMProvider_SendMulticastChunksAndMapsResponses(t *testing.T) {
	client := &mockMessagingClient{
		multicastFn: func(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
			resp := &messaging.BatchResponse{}
			for _, token := range message.Tokens {
				if token == "bad" {
					resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: false, Error: errors.New("unregistered")})
					resp.FailureCount++
					continue
				}
				resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true, MessageID: "m-" + token})
				resp.SuccessCount++
			}
			return resp, nil
		},
	}
	provider := &FCMProvider{client: client}

	tokens := make([]string, 0, fcmMulticastLimit+2)
	for i := 0; i < fcmMulticastLimit+1; i++ {
		tokens = append(tokens, fmt.Sprintf("t%d", i))
	}
	tokens = append(tokens, "bad")

	responses, err := provider.SendMulticast(context.Background(), &MulticastRequest{
		Tokens: tokens,
		Title:  "🚨 Nearby Help Needed!",
		Body:   "Flooded street",
	})
	require.NoError(t, err)

	require.Len(t, client.batches, 2)
	assert.Len(t, client.batches[0], fcmMulticastLimit)
	assert.Len(t, client.batches[1], 2)

	require.Len(t, responses, len(tokens))
	assert.True(t, responses[0].Success)
	assert.Equal(t, "m-t0", responses[0].MessageID)
	last := responses[len(responses)-1]
	assert.False(t, last.Success)
	assert.Equal(t, "bad", last.Token)
	assert.Equal(t, "unregistered", last.Error)
}

func TestFCMProvider_SendMulticastTransportError(t *testing.T) {
	provider := &FCMProvider{client: &mockMessagingClient{
		multicastFn: func(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
			return nil, errors.New("connection refused")
		},
	}}

	_, err := provider.SendMulticast(context.Background(), &MulticastRequest{Tokens: []string{"a"}})
	assert.ErrorContains(t, err, "connection refused")
}

func TestFCMProvider_SendNotification(t *testing.T) {
	var got *messaging.Message
	provider := &FCMProvider{client: &mockMessagingClient{
		sendFn: func(ctx context.Context, message *messaging.Message) (string, error) {
			got = message
			return "msg-1", nil
		},
	}}

	resp, err := provider.SendNotification(context.Background(), &NotificationRequest{
		Token: "tok",
		Title: "Someone accepted your help request!",
		Body:  "A responder is on the way.",
		Data:  map[string]string{"issueId": "abc"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "msg-1", resp.MessageID)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "abc", got.Data["issueId"])
	assert.Equal(t, PriorityHigh, got.Android.Priority)
	assert.Equal(t, "10", got.APNS.Headers["apns-priority"])
}
