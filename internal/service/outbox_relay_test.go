package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"idealab-be/internal/config"
	"idealab-be/internal/entity"
	"idealab-be/internal/pkg/logger"
	"idealab-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	ids    []string
	types  []string
	failOn map[string]bool
}

func (p *recordingPublisher) Publish(ctx context.Context, id string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn[event.EventType()] {
		return errors.New("bus unavailable")
	}
	p.ids = append(p.ids, id)
	p.types = append(p.types, event.EventType())
	return nil
}

func relayConfig() config.WorkflowConfig {
	return config.WorkflowConfig{
		OutboxPollInterval:   10 * time.Millisecond,
		OutboxBatchSize:      10,
		PublishRetryAttempts: 1,
		OutboxMaxAttempts:    2,
	}
}

func queueEvent(db *memDB, eventType string, at time.Time) entity.OutboxEvent {
	row := entity.OutboxEvent{
		Id:          uuid.New(),
		EventType:   eventType,
		AggregateId: uuid.New(),
		Payload:     map[string]interface{}{events.KeyIdeaID: uuid.NewString()},
		Status:      entity.OutboxStatusPending,
		CreatedAt:   at,
	}
	db.state.outbox = append(db.state.outbox, row)
	return row
}

func TestRelayOncePublishesPendingRows(t *testing.T) {
	db := newMemDB()
	first := queueEvent(db, events.TypeIdeaSubmitted, time.Now().Add(-time.Minute))
	second := queueEvent(db, events.TypeIdeaStageChanged, time.Now())
	pub := &recordingPublisher{}
	relay := NewOutboxRelay(db, pub, relayConfig(), logger.NewNopLogger())

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{first.Id.String(), second.Id.String()}, pub.ids)

	for _, row := range db.snapshot().outbox {
		assert.Equal(t, entity.OutboxStatusPublished, row.Status)
		assert.NotNil(t, row.PublishedAt)
	}

	n, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, pub.ids, 2)
}

func TestRelayOnceStopsBatchOnFailureAndGivesUp(t *testing.T) {
	db := newMemDB()
	queueEvent(db, events.TypeIdeaRejected, time.Now().Add(-time.Minute))
	queueEvent(db, events.TypeIdeaSubmitted, time.Now())
	pub := &recordingPublisher{failOn: map[string]bool{events.TypeIdeaRejected: true}}
	relay := NewOutboxRelay(db, pub, relayConfig(), logger.NewNopLogger())

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	state := db.snapshot()
	assert.Equal(t, entity.OutboxStatusPending, state.outbox[0].Status)
	assert.Equal(t, 1, state.outbox[0].Attempts)
	assert.Equal(t, "bus unavailable", state.outbox[0].LastError)
	assert.Equal(t, entity.OutboxStatusPending, state.outbox[1].Status)
	assert.Empty(t, pub.ids)

	_, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	state = db.snapshot()
	assert.Equal(t, entity.OutboxStatusFailed, state.outbox[0].Status)
	assert.Equal(t, 2, state.outbox[0].Attempts)

	n, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{events.TypeIdeaSubmitted}, pub.types)
}

func TestRelayOnceReportsClaimFailure(t *testing.T) {
	db := newMemDB()
	queueEvent(db, events.TypeIdeaSubmitted, time.Now())
	db.failOn["outbox.claim"] = true
	relay := NewOutboxRelay(db, &recordingPublisher{}, relayConfig(), logger.NewNopLogger())

	_, err := relay.RelayOnce(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
}

func TestRelayStartPublishesUntilStopped(t *testing.T) {
	db := newMemDB()
	queueEvent(db, events.TypeIdeaSubmitted, time.Now())
	pub := &recordingPublisher{}
	relay := NewOutboxRelay(db, pub, relayConfig(), logger.NewNopLogger())

	relay.Start(context.Background())
	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.ids) == 1
	}, time.Second, 10*time.Millisecond)
	relay.Stop()
	relay.Stop()
}

func TestRelayStopWithoutStartReturns(t *testing.T) {
	relay := NewOutboxRelay(newMemDB(), &recordingPublisher{}, config.WorkflowConfig{}, logger.NewNopLogger())
	relay.Stop()
	assert.Equal(t, 50, relay.batchSize)
	assert.Equal(t, 10, relay.maxAttempts)
}
