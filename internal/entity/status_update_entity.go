package entity

import (
	"time"

	"github.com/google/uuid"
)

// StatusUpdate is the append-only audit record of one stage change.
// PreviousStage is nil only on the creation record.
type StatusUpdate struct {
	Id            uuid.UUID
	IdeaId        uuid.UUID
	Sequence      int
	PreviousStage *Stage
	NewStage      Stage
	Action        Action
	Comment       string
	UpdatedBy     uuid.UUID
	CreatedAt     time.Time

	// IdempotencyKey is the client key of the request that wrote the record, if any.
	IdempotencyKey *string
}
