package dto

import (
	"time"

	"github.com/google/uuid"
)

type SubmitIdeaRequest struct {
	Title            string   `json:"title" validate:"required,max=255"`
	Description      string   `json:"description" validate:"required"`
	ProblemStatement string   `json:"problem_statement"`
	TargetAudience   string   `json:"target_audience"`
	Category         string   `json:"category" validate:"required,oneof=technology process product service other"`
	Tags             []string `json:"tags" validate:"max=10,dive,required,max=50"`
	DocumentURL      *string  `json:"document_url" validate:"omitempty,url"`
}

type UpdateIdeaRequest struct {
	Id               uuid.UUID
	Title            string   `json:"title" validate:"required,max=255"`
	Description      string   `json:"description" validate:"required"`
	ProblemStatement string   `json:"problem_statement"`
	TargetAudience   string   `json:"target_audience"`
	Category         string   `json:"category" validate:"required,oneof=technology process product service other"`
	Tags             []string `json:"tags" validate:"max=10,dive,required,max=50"`
	DocumentURL      *string  `json:"document_url" validate:"omitempty,url"`
}

type ListIdeasQuery struct {
	Stage    string `query:"stage" validate:"omitempty,oneof=discovery basic_validation tech_validation leadership_pitch mvp rejected"`
	Category string `query:"category" validate:"omitempty,oneof=technology process product service other"`
	Search   string `query:"q" validate:"max=100"`
	Limit    int    `query:"limit" validate:"min=0,max=100"`
	Offset   int    `query:"offset" validate:"min=0"`
}

type IdeaResponse struct {
	Id               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	ProblemStatement string     `json:"problem_statement"`
	TargetAudience   string     `json:"target_audience"`
	Category         string     `json:"category"`
	Tags             []string   `json:"tags"`
	DocumentURL      *string    `json:"document_url"`
	Stage            string     `json:"stage"`
	SubmittedBy      uuid.UUID  `json:"submitted_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

// ShowIdeaResponse carries what the caller may do next so clients never
// re-derive permissions.
type ShowIdeaResponse struct {
	IdeaResponse
	AvailableActions []string `json:"available_actions"`
	CanEdit          bool     `json:"can_edit"`
}

type IdeaListResponse struct {
	Items  []*IdeaResponse `json:"items"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type AvailableActionsResponse struct {
	IdeaId  uuid.UUID `json:"idea_id"`
	Stage   string    `json:"stage"`
	Role    string    `json:"role"`
	Actions []string  `json:"actions"`
}
