package model

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IdeaId     uuid.UUID `gorm:"type:uuid;not null;index:idx_comments_idea_created,priority:1"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;index"`
	Content    string    `gorm:"type:text;not null"`
	IsInternal bool      `gorm:"default:false"`
	CreatedAt  time.Time `gorm:"not null;index:idx_comments_idea_created,priority:2"`
}

func (Comment) TableName() string {
	return "comments"
}
