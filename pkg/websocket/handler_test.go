package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sahayak/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testOptions() *Options {
	return &Options{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		PingInterval:    time.Second,
		PongTimeout:     2 * time.Second,
		SendBufferSize:  8,
	}
}

func TestHandler_DeliversToConnectedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := NewHandler(ctx, testOptions(), logger.Discard())
	userID := primitive.NewObjectID()

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		c.Set("user_id", userID)
		handler.HandleWebSocket(c)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var welcome Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, "welcome", welcome.Type)

	handler.SendUserNotification(userID, "notification", map[string]interface{}{"title": "🚨 Nearby Help Needed!"})
	handler.SendUserNotification(primitive.NewObjectID(), "notification", map[string]interface{}{"title": "not for you"})

	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var got Message
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "notification", got.Type)
	assert.Equal(t, "🚨 Nearby Help Needed!", got.Data["title"])
}

func TestHandler_RejectsUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := NewHandler(ctx, testOptions(), logger.Discard())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/ws", nil)

	handler.HandleWebSocket(c)
	assert.Equal(t, 401, w.Code)
}

func TestHub_DropsSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(logger.Discard())
	go hub.Run(ctx)

	userID := primitive.NewObjectID()
	client := &Client{hub: hub, send: make(chan []byte, 1), UserID: userID}
	hub.register <- client

	// The welcome message fills the buffer; the next delivery evicts the client.
	hub.SendToUser(userID, Message{Type: "notification"})

	assert.Eventually(t, func() bool { return hub.ConnectedClients() == 0 }, time.Second, 10*time.Millisecond)
	<-client.send
	_, open := <-client.send
	assert.False(t, open)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example"})

	req := httptest.NewRequest("GET", "http://api.example/ws", nil)
	req.Header.Set("Origin", "https://app.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	req.Header.Del("Origin")
	assert.True(t, check(req))
}
