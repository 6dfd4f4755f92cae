package entity

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	Id         uuid.UUID
	IdeaId     uuid.UUID
	UserId     uuid.UUID
	Content    string
	IsInternal bool
	CreatedAt  time.Time
}
