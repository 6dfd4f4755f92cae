package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Idea struct {
	Id               uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title            string                      `gorm:"type:varchar(255);not null"`
	Description      string                      `gorm:"type:text;not null"`
	ProblemStatement string                      `gorm:"type:text"`
	TargetAudience   string                      `gorm:"type:text"`
	Category         string                      `gorm:"type:varchar(50);not null;index"`
	Tags             datatypes.JSONSlice[string] `gorm:"type:jsonb;default:'[]'"`
	DocumentURL      *string                     `gorm:"type:text"`
	Stage            string                      `gorm:"type:varchar(50);not null;default:'discovery';index"`
	SubmittedBy      uuid.UUID                   `gorm:"type:uuid;not null;index"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime;index"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime"`
}

func (Idea) TableName() string {
	return "ideas"
}
