package model

import (
	"time"

	"github.com/google/uuid"
)

// StatusUpdate is append-only. (idea_id, sequence) is unique so two writers racing
// on the same idea cannot both append. (idea_id, idempotency_key) is unique too;
// rows without a key are NULL there and never collide.
type StatusUpdate struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IdeaId         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_status_updates_idea_seq,priority:1;uniqueIndex:idx_status_updates_idea_key,priority:1"`
	Sequence       int       `gorm:"not null;uniqueIndex:idx_status_updates_idea_seq,priority:2"`
	PreviousStage  *string   `gorm:"type:varchar(50)"`
	NewStage       string    `gorm:"type:varchar(50);not null"`
	Action         string    `gorm:"type:varchar(50);not null"`
	Comment        string    `gorm:"type:text;not null"`
	UpdatedBy      uuid.UUID `gorm:"type:uuid;not null;index"`
	IdempotencyKey *string   `gorm:"type:varchar(100);uniqueIndex:idx_status_updates_idea_key,priority:2"`
	CreatedAt      time.Time `gorm:"not null;index"`
}

func (StatusUpdate) TableName() string {
	return "status_updates"
}
