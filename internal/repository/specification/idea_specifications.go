package specification

import (
	"idealab-be/internal/entity"
	"idealab-be/internal/repository/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByStage struct {
	Stage entity.Stage
}

func (s ByStage) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("stage = ?", string(s.Stage))
}

// InStages matches nothing when Stages is empty.
type InStages struct {
	Stages []entity.Stage
}

func (s InStages) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Stages) == 0 {
		return db.Where("1 = 0")
	}
	values := make([]string, len(s.Stages))
	for i, st := range s.Stages {
		values[i] = string(st)
	}
	return db.Where("stage IN ?", values)
}

type ByCategory struct {
	Category entity.Category
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category = ?", string(s.Category))
}

type SubmittedBy struct {
	UserID uuid.UUID
}

func (s SubmittedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("submitted_by = ?", s.UserID)
}

// TitleContains is a case-insensitive substring match on the idea title.
type TitleContains struct {
	Query string
}

func (s TitleContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("title ILIKE ?", "%"+s.Query+"%")
}

type ByIdeaID struct {
	IdeaID uuid.UUID
}

func (s ByIdeaID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("idea_id = ?", s.IdeaID)
}

// ExternalOnly hides reviewer-only comments.
type ExternalOnly struct{}

func (s ExternalOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_internal = ?", false)
}

// Chronological orders audit rows oldest first. TieBreaker defaults to id.
type Chronological struct {
	TieBreaker string
}

func (s Chronological) Apply(db *gorm.DB) *gorm.DB {
	tie := s.TieBreaker
	if tie == "" {
		tie = "id"
	}
	return db.Scopes(scope.OrderByCreatedAsc).Order(tie + " ASC")
}
