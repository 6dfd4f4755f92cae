package mapper

import (
	"time"

	"idealab-be/internal/entity"
	"idealab-be/internal/model"

	"gorm.io/datatypes"
)

type IdeaMapper struct{}

func NewIdeaMapper() *IdeaMapper {
	return &IdeaMapper{}
}

func (m *IdeaMapper) ToEntity(i *model.Idea) *entity.Idea {
	if i == nil {
		return nil
	}

	var updatedAt *time.Time
	if !i.UpdatedAt.IsZero() {
		t := i.UpdatedAt
		updatedAt = &t
	}

	tags := make([]string, len(i.Tags))
	copy(tags, i.Tags)

	return &entity.Idea{
		Id:               i.Id,
		Title:            i.Title,
		Description:      i.Description,
		ProblemStatement: i.ProblemStatement,
		TargetAudience:   i.TargetAudience,
		Category:         entity.Category(i.Category),
		Tags:             tags,
		DocumentURL:      i.DocumentURL,
		Stage:            entity.Stage(i.Stage),
		SubmittedBy:      i.SubmittedBy,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *IdeaMapper) ToModel(i *entity.Idea) *model.Idea {
	if i == nil {
		return nil
	}

	var updatedAt time.Time
	if i.UpdatedAt != nil {
		updatedAt = *i.UpdatedAt
	}

	tags := datatypes.JSONSlice[string]{}
	tags = append(tags, i.Tags...)

	return &model.Idea{
		Id:               i.Id,
		Title:            i.Title,
		Description:      i.Description,
		ProblemStatement: i.ProblemStatement,
		TargetAudience:   i.TargetAudience,
		Category:         string(i.Category),
		Tags:             tags,
		DocumentURL:      i.DocumentURL,
		Stage:            string(i.Stage),
		SubmittedBy:      i.SubmittedBy,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *IdeaMapper) ToEntities(ideas []*model.Idea) []*entity.Idea {
	entities := make([]*entity.Idea, len(ideas))
	for i, idea := range ideas {
		entities[i] = m.ToEntity(idea)
	}
	return entities
}
