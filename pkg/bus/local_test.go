package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"idealab-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBusDeliversEvents(t *testing.T) {
	b := NewLocalBus()
	defer b.Close()

	var mu sync.Mutex
	var got []events.Event
	done := make(chan struct{})

	require.NoError(t, b.Subscribe("events.>", "test", func(_ context.Context, e events.Event) error {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
		close(done)
		return nil
	}))

	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	err := b.Publish(context.Background(), "evt-1", events.BaseEvent{
		Type:       events.TypeIdeaSubmitted,
		Data:       map[string]interface{}{events.KeyIdeaID: "abc"},
		OccurredAt: at,
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, events.TypeIdeaSubmitted, got[0].EventType())
	assert.Equal(t, at, got[0].Timestamp())
	assert.Equal(t, "abc", got[0].Payload()[events.KeyIdeaID])
}
