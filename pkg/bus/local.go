// Package bus is the in-process event bus used when NATS is unreachable. It keeps
// the outbox relay and the notification subscriber working on a single node.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"idealab-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	topic = "events"

	metaEventType  = "event_type"
	metaOccurredAt = "occurred_at"
)

type LocalBus struct {
	pubSub *gochannel.GoChannel
	ctx    context.Context
	cancel context.CancelFunc
}

func NewLocalBus() *LocalBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalBus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 256},
			watermill.NewStdLogger(false, false),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (b *LocalBus) Publish(_ context.Context, id string, event events.Event) error {
	data, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	msg := message.NewMessage(id, data)
	msg.Metadata.Set(metaEventType, event.EventType())
	msg.Metadata.Set(metaOccurredAt, event.Timestamp().UTC().Format(time.RFC3339Nano))

	return b.pubSub.Publish(topic, msg)
}

// Subscribe delivers every event to handler. subject and durableName exist for
// parity with the NATS subscriber; an in-process bus has one stream and no
// durable state.
func (b *LocalBus) Subscribe(subject string, durableName string, handler events.Handler) error {
	messages, err := b.pubSub.Subscribe(b.ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			b.process(msg, handler)
		}
	}()

	log.Printf("Subscribed to local bus for %s (%s)", subject, durableName)
	return nil
}

func (b *LocalBus) process(msg *message.Message, handler events.Handler) {
	event, err := decode(msg)
	if err != nil {
		log.Printf("[ERROR] Failed to decode local event %s: %v", msg.UUID, err)
		msg.Ack()
		return
	}

	if err := handler(b.ctx, event); err != nil {
		log.Printf("[ERROR] Handler failed for local event %s: %v", event.EventType(), err)
		msg.Nack()
		return
	}
	msg.Ack()
}

func decode(msg *message.Message) (events.BaseEvent, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return events.BaseEvent{}, err
	}

	occurredAt := time.Now()
	if raw := msg.Metadata.Get(metaOccurredAt); raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			occurredAt = t
		}
	}

	return events.BaseEvent{
		Type:       msg.Metadata.Get(metaEventType),
		Data:       payload,
		OccurredAt: occurredAt,
	}, nil
}

func (b *LocalBus) Close() error {
	b.cancel()
	return b.pubSub.Close()
}
