package mapper

import (
	"idealab-be/internal/entity"
	"idealab-be/internal/model"
)

// HistoryMapper covers the audit trail: status updates and comments.
type HistoryMapper struct{}

func NewHistoryMapper() *HistoryMapper {
	return &HistoryMapper{}
}

func (m *HistoryMapper) StatusUpdateToEntity(s *model.StatusUpdate) *entity.StatusUpdate {
	if s == nil {
		return nil
	}
	var previous *entity.Stage
	if s.PreviousStage != nil {
		p := entity.Stage(*s.PreviousStage)
		previous = &p
	}
	return &entity.StatusUpdate{
		Id:             s.Id,
		IdeaId:         s.IdeaId,
		Sequence:       s.Sequence,
		PreviousStage:  previous,
		NewStage:       entity.Stage(s.NewStage),
		Action:         entity.Action(s.Action),
		Comment:        s.Comment,
		UpdatedBy:      s.UpdatedBy,
		IdempotencyKey: s.IdempotencyKey,
		CreatedAt:      s.CreatedAt,
	}
}

func (m *HistoryMapper) StatusUpdateToModel(s *entity.StatusUpdate) *model.StatusUpdate {
	if s == nil {
		return nil
	}
	var previous *string
	if s.PreviousStage != nil {
		p := string(*s.PreviousStage)
		previous = &p
	}
	return &model.StatusUpdate{
		Id:             s.Id,
		IdeaId:         s.IdeaId,
		Sequence:       s.Sequence,
		PreviousStage:  previous,
		NewStage:       string(s.NewStage),
		Action:         string(s.Action),
		Comment:        s.Comment,
		UpdatedBy:      s.UpdatedBy,
		IdempotencyKey: s.IdempotencyKey,
		CreatedAt:      s.CreatedAt,
	}
}

func (m *HistoryMapper) StatusUpdatesToEntities(updates []*model.StatusUpdate) []*entity.StatusUpdate {
	entities := make([]*entity.StatusUpdate, len(updates))
	for i, u := range updates {
		entities[i] = m.StatusUpdateToEntity(u)
	}
	return entities
}

func (m *HistoryMapper) CommentToEntity(c *model.Comment) *entity.Comment {
	if c == nil {
		return nil
	}
	return &entity.Comment{
		Id:         c.Id,
		IdeaId:     c.IdeaId,
		UserId:     c.UserId,
		Content:    c.Content,
		IsInternal: c.IsInternal,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *HistoryMapper) CommentToModel(c *entity.Comment) *model.Comment {
	if c == nil {
		return nil
	}
	return &model.Comment{
		Id:         c.Id,
		IdeaId:     c.IdeaId,
		UserId:     c.UserId,
		Content:    c.Content,
		IsInternal: c.IsInternal,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *HistoryMapper) CommentsToEntities(comments []*model.Comment) []*entity.Comment {
	entities := make([]*entity.Comment, len(comments))
	for i, c := range comments {
		entities[i] = m.CommentToEntity(c)
	}
	return entities
}
