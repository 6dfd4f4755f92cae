package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User mirrors the identity provider's directory. Role is empty for users that
// have not been granted one.
type User struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName  string         `gorm:"type:varchar(255);not null"`
	Role      string         `gorm:"type:varchar(50);not null;default:'';index"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

type Role struct {
	Name        string    `gorm:"type:varchar(50);primaryKey"`
	DisplayName string    `gorm:"type:varchar(100);not null"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Role) TableName() string {
	return "roles"
}
