package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"sahayak/internal/config"
	"sahayak/internal/repositories/memory"
	"sahayak/pkg/lock"
	"sahayak/pkg/logger"
	"sahayak/pkg/push"
	"sahayak/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockStorage struct {
	mu       sync.Mutex
	uploaded []string
	uploadFn func(ctx context.Context, request *storage.UploadRequest) (*storage.UploadResponse, error)
	getURLFn func(ctx context.Context, key string, expiration time.Duration) (string, error)
}

func (m *mockStorage) Upload(ctx context.Context, request *storage.UploadRequest) (*storage.UploadResponse, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, request)
	}
	if request.Reader != nil {
		_, _ = io.Copy(io.Discard, request.Reader)
	}
	m.mu.Lock()
	m.uploaded = append(m.uploaded, request.Key)
	m.mu.Unlock()
	return &storage.UploadResponse{Key: request.Key, Size: request.Size}, nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error { return nil }

func (m *mockStorage) GetURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	if m.getURLFn != nil {
		return m.getURLFn(ctx, key, expiration)
	}
	return "https://cdn.test/" + key, nil
}

func (m *mockStorage) FileExists(ctx context.Context, key string) (bool, error) { return true, nil }

type mockClassifier struct {
	calls      int
	categorize func(ctx context.Context, description string) (int, error)
}

func (m *mockClassifier) Categorize(ctx context.Context, description string) (int, error) {
	m.calls++
	if m.categorize != nil {
		return m.categorize(ctx, description)
	}
	return 0, nil
}

type mockPush struct {
	mu          sync.Mutex
	multicasts  []*push.MulticastRequest
	singles     []*push.NotificationRequest
	multicastFn func(ctx context.Context, request *push.MulticastRequest) ([]*push.NotificationResponse, error)
	sendFn      func(ctx context.Context, request *push.NotificationRequest) (*push.NotificationResponse, error)
}

func (m *mockPush) SendNotification(ctx context.Context, request *push.NotificationRequest) (*push.NotificationResponse, error) {
	m.mu.Lock()
	m.singles = append(m.singles, request)
	m.mu.Unlock()
	if m.sendFn != nil {
		return m.sendFn(ctx, request)
	}
	return &push.NotificationResponse{MessageID: "msg", Success: true, Token: request.Token}, nil
}

func (m *mockPush) SendMulticast(ctx context.Context, request *push.MulticastRequest) ([]*push.NotificationResponse, error) {
	m.mu.Lock()
	m.multicasts = append(m.multicasts, request)
	m.mu.Unlock()
	if m.multicastFn != nil {
		return m.multicastFn(ctx, request)
	}
	responses := make([]*push.NotificationResponse, len(request.Tokens))
	for i, token := range request.Tokens {
		responses[i] = &push.NotificationResponse{MessageID: fmt.Sprintf("msg-%d", i), Success: true, Token: token}
	}
	return responses, nil
}

func (m *mockPush) multicastTokens() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]string
	for _, r := range m.multicasts {
		out = append(out, r.Tokens)
	}
	return out
}

type realtimeEvent struct {
	userID primitive.ObjectID
	kind   string
	data   map[string]interface{}
}

type mockRealtime struct {
	mu     sync.Mutex
	events []realtimeEvent
}

func (m *mockRealtime) SendUserNotification(userID primitive.ObjectID, notificationType string, data map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, realtimeEvent{userID: userID, kind: notificationType, data: data})
}

// testClock hands out strictly increasing millisecond timestamps.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type testEnv struct {
	issues        *issueService
	notifications *notificationService
	users         *memory.UserRepository
	storage       *mockStorage
	classifier    *mockClassifier
	push          *mockPush
	realtime      *mockRealtime
	clock         *testClock
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:      memory.NewUserRepository(),
		storage:    &mockStorage{},
		classifier: &mockClassifier{},
		push:       &mockPush{},
		realtime:   &mockRealtime{},
		clock:      newTestClock(),
	}
	log := logger.Discard()
	outbox := &config.OutboxConfig{Enabled: true, Schedule: "@every 1m", MaxAttempts: 3, BatchSize: 50}

	env.notifications = NewNotificationService(
		env.users, memory.NewNotificationRepository(), env.push, env.realtime, outbox, log,
	).(*notificationService)
	env.notifications.now = env.clock.Now

	env.issues = NewIssueService(
		memory.NewIssueRepository(),
		env.users,
		env.storage,
		env.classifier,
		env.notifications,
		lock.NewKeyedMutex(),
		&config.LifecycleConfig{NotifyRadiusKM: 2.0, LockTTL: time.Second, LockWait: time.Second, OperationTimeout: 5 * time.Second},
		&config.StorageConfig{SignedURLTTL: time.Hour},
		log,
	).(*issueService)
	env.issues.now = env.clock.Now
	return env
}

func (e *testEnv) addUser(name string, lat, lng float64, token string) primitive.ObjectID {
	u := e.users.Save(newUser(name, lat, lng, token))
	return u.ID
}
