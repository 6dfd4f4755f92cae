package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"idealab-be/internal/model"
	"idealab-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	hubModule      = "Hub"
	clusterChannel = "idealab:notifications"
)

// clusterMessage travels between instances over redis. Origin lets an instance
// ignore its own publications, which it has already delivered locally.
type clusterMessage struct {
	Origin       string          `json:"origin"`
	TargetUserID string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

type Hub struct {
	// UserID -> connections, one per device.
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client
	// Closed when Run returns.
	done chan struct{}

	mu sync.RWMutex

	// Optional. Without it notifications reach only users connected to this instance.
	rdb *redis.Client

	instanceID string
	logger     logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// Run serves registrations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info(hubModule, "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// Register hands client to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client and closes its Send channel. After the hub has
// stopped it returns false without waiting.
func (h *Hub) Unregister(client *Client) bool {
	select {
	case h.unregister <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
		h.logger.Info(hubModule, "Client completely unregistered", map[string]interface{}{"user_id": client.UserID})
	}
}

// Send delivers a notification to every local connection of userID and fans it
// out to the other instances.
func (h *Hub) Send(userID uuid.UUID, notification model.Notification) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": notification,
	})
	if err != nil {
		h.logger.Error(hubModule, "Failed to encode notification", map[string]interface{}{"error": err})
		return
	}

	h.deliverLocal(userID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{
			Origin:       h.instanceID,
			TargetUserID: userID.String(),
			Message:      data,
		})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn(hubModule, "Failed to publish notification to cluster", map[string]interface{}{"error": err})
		}
	}
}

// deliverLocal drops a connection whose buffer is full instead of blocking the caller.
func (h *Hub) deliverLocal(userID uuid.UUID, data []byte) {
	// Held while sending so remove cannot close a channel mid-send.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[userID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn(hubModule, "Client Send buffer full, dropping connection", map[string]interface{}{"user_id": userID})
			go h.Unregister(client)
		}
	}
}

// dispatch handles one message from the cluster channel.
func (h *Hub) dispatch(raw []byte) {
	var msg clusterMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.Warn(hubModule, "Cluster message parse error", map[string]interface{}{"error": err})
		return
	}
	if msg.Origin == h.instanceID {
		return
	}
	uid, err := uuid.Parse(msg.TargetUserID)
	if err != nil {
		return
	}
	h.deliverLocal(uid, msg.Message)
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.dispatch([]byte(msg.Payload))
		}
	}
}

// Connected reports how many connections userID has on this instance.
func (h *Hub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
