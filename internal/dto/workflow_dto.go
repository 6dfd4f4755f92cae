package dto

import (
	"time"

	"github.com/google/uuid"
)

type ApplyActionRequest struct {
	IdeaId  uuid.UUID
	Action  string `json:"action" validate:"required"`
	Comment string `json:"comment"`
	// ExpectedStage is the stage the client displayed. Optional.
	ExpectedStage string `json:"expected_stage"`
	// IdempotencyKey may also arrive as the Idempotency-Key header.
	IdempotencyKey string `json:"idempotency_key" validate:"omitempty,max=100"`
}

type TransitionResponse struct {
	Idea          *IdeaResponse         `json:"idea"`
	PreviousStage string                `json:"previous_stage"`
	StatusUpdate  *StatusUpdateResponse `json:"status_update"`
	ActorRole     string                `json:"actor_role"`
	NextActions   []string              `json:"next_actions"`
}

type StatusUpdateResponse struct {
	Id            uuid.UUID `json:"id"`
	Sequence      int       `json:"sequence"`
	PreviousStage *string   `json:"previous_stage"`
	NewStage      string    `json:"new_stage"`
	Action        string    `json:"action"`
	Comment       string    `json:"comment"`
	UpdatedBy     uuid.UUID `json:"updated_by"`
	CreatedAt     time.Time `json:"created_at"`
}

type CommentResponse struct {
	Id         uuid.UUID `json:"id"`
	UserId     uuid.UUID `json:"user_id"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

type AddCommentRequest struct {
	IdeaId  uuid.UUID
	Content string `json:"content" validate:"required,max=5000"`
}

type HistoryVerificationResponse struct {
	IdeaId       uuid.UUID `json:"idea_id"`
	Consistent   bool      `json:"consistent"`
	Steps        int       `json:"steps"`
	FinalStage   string    `json:"final_stage"`
	CurrentStage string    `json:"current_stage"`
	Terminal     bool      `json:"terminal"`
	Problems     []string  `json:"problems"`
}

type RoleResponse struct {
	Name             string   `json:"name"`
	DisplayName      string   `json:"display_name"`
	Description      string   `json:"description"`
	ManageableStages []string `json:"manageable_stages"`
}
