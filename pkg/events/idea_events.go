package events

import (
	"time"

	"idealab-be/internal/entity"

	"github.com/google/uuid"
)

const (
	TypeIdeaSubmitted    = "IDEA_SUBMITTED"
	TypeIdeaStageChanged = "IDEA_STAGE_CHANGED"
	TypeIdeaRejected     = "IDEA_REJECTED"
	TypeIdeaReachedMVP   = "IDEA_REACHED_MVP"
)

// Payload keys shared by producers and the notification service.
const (
	KeyIdeaID        = "idea_id"
	KeyTitle         = "title"
	KeyUserID        = "user_id"
	KeyActorID       = "actor_id"
	KeyPreviousStage = "previous_stage"
	KeyNewStage      = "new_stage"
	KeyAction        = "action"
	KeyComment       = "comment"
	KeyEntityType    = "entity_type"
	KeyEntityID      = "entity_id"
	KeyOccurredAt    = "occurred_at"
)

// StageChangeType picks the event code for a transition so terminal outcomes can
// carry their own notification template.
func StageChangeType(next entity.Stage) string {
	switch next {
	case entity.StageRejected:
		return TypeIdeaRejected
	case entity.StageMVP:
		return TypeIdeaReachedMVP
	default:
		return TypeIdeaStageChanged
	}
}

func IdeaStageChanged(ideaID uuid.UUID, title string, ownerID, actorID uuid.UUID, previous, next entity.Stage, action entity.Action, comment string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: StageChangeType(next),
		Data: map[string]interface{}{
			KeyIdeaID:        ideaID.String(),
			KeyTitle:         title,
			KeyUserID:        ownerID.String(),
			KeyActorID:       actorID.String(),
			KeyPreviousStage: string(previous),
			KeyNewStage:      string(next),
			KeyAction:        string(action),
			KeyComment:       comment,
			KeyEntityType:    "idea",
			KeyEntityID:      ideaID.String(),
			KeyOccurredAt:    at.UTC().Format(time.RFC3339),
		},
		OccurredAt: at,
	}
}

func IdeaSubmitted(ideaID uuid.UUID, title string, ownerID uuid.UUID, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeIdeaSubmitted,
		Data: map[string]interface{}{
			KeyIdeaID:     ideaID.String(),
			KeyTitle:      title,
			KeyUserID:     ownerID.String(),
			KeyActorID:    ownerID.String(),
			KeyNewStage:   string(entity.StageDiscovery),
			KeyAction:     string(entity.ActionSubmit),
			KeyEntityType: "idea",
			KeyEntityID:   ideaID.String(),
			KeyOccurredAt: at.UTC().Format(time.RFC3339),
		},
		OccurredAt: at,
	}
}
