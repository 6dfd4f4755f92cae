package entity

import (
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// OutboxEvent is an event recorded in the same transaction as the state change it
// describes and published to the bus afterwards.
type OutboxEvent struct {
	Id          uuid.UUID
	EventType   string
	AggregateId uuid.UUID
	Payload     map[string]interface{}
	Status      OutboxStatus
	Attempts    int
	LastError   string
	CreatedAt   time.Time
	PublishedAt *time.Time
}
