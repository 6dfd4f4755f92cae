package specification

import (
	"idealab-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

type UserOwnedBy struct {
	UserID uuid.UUID
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ByRole struct {
	Role entity.Role
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", string(s.Role))
}

type InRoles struct {
	Roles []entity.Role
}

func (s InRoles) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Roles) == 0 {
		return db.Where("1 = 0")
	}
	values := make([]string, len(s.Roles))
	for i, r := range s.Roles {
		values[i] = string(r)
	}
	return db.Where("role IN ?", values)
}
