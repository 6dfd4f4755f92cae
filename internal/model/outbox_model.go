package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type OutboxEvent struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventType   string         `gorm:"type:varchar(50);not null"`
	AggregateId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null"`
	Status      string         `gorm:"type:varchar(20);not null;default:'pending';index:idx_outbox_status_created,priority:1"`
	Attempts    int            `gorm:"default:0"`
	LastError   string         `gorm:"type:text"`
	CreatedAt   time.Time      `gorm:"not null;index:idx_outbox_status_created,priority:2"`
	PublishedAt *time.Time
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}
