package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"idealab-be/internal/model"
	"idealab-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func attach(t *testing.T, hub *Hub, userID uuid.UUID) *Client {
	t.Helper()
	c := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 4)}
	hub.register <- c
	require.Eventually(t, func() bool { return hub.Connected(userID) > 0 }, time.Second, 5*time.Millisecond)
	return c
}

func TestHubSendReachesEveryDeviceOfUser(t *testing.T) {
	hub := startHub(t)
	user := uuid.New()
	phone := attach(t, hub, user)
	laptop := attach(t, hub, user)
	other := attach(t, hub, uuid.New())

	hub.Send(user, model.Notification{ID: uuid.New(), UserID: user, Title: "Stage changed"})

	for _, c := range []*Client{phone, laptop} {
		select {
		case raw := <-c.Send:
			var frame map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &frame))
			assert.Equal(t, "notification", frame["type"])
		case <-time.After(time.Second):
			t.Fatal("notification not delivered")
		}
	}
	assert.Len(t, other.Send, 0)
}

func TestHubDispatchIgnoresOwnOrigin(t *testing.T) {
	hub := startHub(t)
	user := uuid.New()
	c := attach(t, hub, user)

	own, _ := json.Marshal(clusterMessage{Origin: hub.instanceID, TargetUserID: user.String(), Message: json.RawMessage(`{"type":"notification"}`)})
	hub.dispatch(own)
	assert.Len(t, c.Send, 0)

	remote, _ := json.Marshal(clusterMessage{Origin: "other-instance", TargetUserID: user.String(), Message: json.RawMessage(`{"type":"notification"}`)})
	hub.dispatch(remote)
	assert.Len(t, c.Send, 1)
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	hub := startHub(t)
	user := uuid.New()
	c := attach(t, hub, user)

	hub.unregister <- c
	require.Eventually(t, func() bool { return hub.Connected(user) == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)
}

func TestHubDropsClientWithFullBuffer(t *testing.T) {
	hub := startHub(t)
	user := uuid.New()
	c := &Client{Hub: hub, UserID: user, Send: make(chan []byte, 1)}
	require.True(t, hub.Register(c))
	require.Eventually(t, func() bool { return hub.Connected(user) == 1 }, time.Second, 5*time.Millisecond)

	hub.Send(user, model.Notification{ID: uuid.New(), UserID: user, Title: "first"})
	hub.Send(user, model.Notification{ID: uuid.New(), UserID: user, Title: "second"})

	require.Eventually(t, func() bool { return hub.Connected(user) == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubStoppedDoesNotBlockCallers(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	user := uuid.New()
	c := &Client{Hub: hub, UserID: user, Send: make(chan []byte, 1)}
	require.True(t, hub.Register(c))
	require.Eventually(t, func() bool { return hub.Connected(user) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped

	returned := make(chan bool, 2)
	go func() { returned <- hub.Unregister(c) }()
	go func() { returned <- hub.Register(&Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 1)}) }()
	for i := 0; i < 2; i++ {
		select {
		case ok := <-returned:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("call blocked on a stopped hub")
		}
	}
}
