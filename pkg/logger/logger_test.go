package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(&buf, InfoLevel)
	child := parent.WithField("issue_id", "abc")

	parent.Info("parent")
	assert.NotContains(t, buf.String(), "issue_id")

	buf.Reset()
	child.Info("child")
	assert.Contains(t, buf.String(), "issue_id=abc")
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, InfoLevel)
	userID := primitive.NewObjectID()

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, userID)
	log.WithContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), "request_id=req-1")
	assert.Contains(t, buf.String(), "user_id="+userID.Hex())
}

func TestCustomJSONFormatter(t *testing.T) {
	f := &CustomJSONFormatter{AppName: "Sahayak", Version: "1.0.0"}
	entry := logrus.NewEntry(logrus.New()).WithField("issue_id", "abc")
	entry.Message = "Issue event occurred"
	entry.Level = logrus.InfoLevel

	out, err := f.Format(entry)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "Sahayak", decoded["app"])
	assert.Equal(t, "info", decoded["level"])
	assert.Equal(t, "abc", decoded["issue_id"])
	assert.Equal(t, "Issue event occurred", decoded["message"])
}

func TestLogNotificationDispatchLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, InfoLevel)
	id := primitive.NewObjectID()

	log.LogNotificationDispatch(id, 3, 3, 0)
	assert.Contains(t, buf.String(), "level=info")

	buf.Reset()
	log.LogNotificationDispatch(id, 3, 1, 2)
	assert.Contains(t, buf.String(), "level=warning")
	assert.Contains(t, buf.String(), "failed=2")
}
