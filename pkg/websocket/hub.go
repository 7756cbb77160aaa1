package websocket

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"sahayak/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hub fans messages out to the connections of each user. All maps are owned
// by the Run goroutine; other goroutines talk to it through channels.
type Hub struct {
	users      map[primitive.ObjectID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan envelope
	done       chan struct{}
	connected  atomic.Int64
	logger     *logger.Logger
}

type Message struct {
	Type      string                 `json:"type"`
	UserID    primitive.ObjectID     `json:"userId"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

type envelope struct {
	userID  primitive.ObjectID
	payload []byte
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		users:      make(map[primitive.ObjectID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan envelope, 256),
		done:       make(chan struct{}),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case env := <-h.deliver:
			h.deliverToUser(env)

		case <-ctx.Done():
			for _, conns := range h.users {
				for client := range conns {
					close(client.send)
				}
			}
			h.users = make(map[primitive.ObjectID]map[*Client]struct{})
			h.connected.Store(0)
			return
		}
	}
}

// ConnectedClients reports the number of open connections.
func (h *Hub) ConnectedClients() int64 {
	return h.connected.Load()
}

// SendToUser queues message for every connection of userID. Users without a
// live connection simply miss it; push notifications cover that case.
func (h *Hub) SendToUser(userID primitive.ObjectID, message Message) {
	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal websocket message")
		return
	}

	select {
	case h.deliver <- envelope{userID: userID, payload: payload}:
	case <-h.done:
	default:
		h.logger.WithUserID(userID).Warn("Websocket delivery queue full, dropping message")
	}
}

func (h *Hub) registerClient(client *Client) {
	conns, ok := h.users[client.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.users[client.UserID] = conns
	}
	conns[client] = struct{}{}
	h.connected.Add(1)

	h.logger.WithUserID(client.UserID).Debug("Websocket client registered")

	welcome, _ := json.Marshal(Message{
		Type:      "welcome",
		UserID:    client.UserID,
		Timestamp: time.Now().UnixMilli(),
		Data:      map[string]interface{}{"message": "Connected successfully"},
	})
	h.sendToClient(client, welcome)
}

func (h *Hub) unregisterClient(client *Client) {
	conns, ok := h.users[client.UserID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}

	delete(conns, client)
	if len(conns) == 0 {
		delete(h.users, client.UserID)
	}
	close(client.send)
	h.connected.Add(-1)

	h.logger.WithUserID(client.UserID).Debug("Websocket client unregistered")
}

func (h *Hub) deliverToUser(env envelope) {
	for client := range h.users[env.userID] {
		h.sendToClient(client, env.payload)
	}
}

// sendToClient drops a client whose buffer is full rather than blocking the hub.
func (h *Hub) sendToClient(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		h.unregisterClient(client)
	}
}
