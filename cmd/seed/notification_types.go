package main

import (
	"idealab-be/internal/model"
	"idealab-be/internal/service"
	"idealab-be/pkg/events"

	"gorm.io/datatypes"
)

func notificationTypeSeeds() []model.NotificationType {
	return []model.NotificationType{
		{
			Code:        events.TypeIdeaSubmitted,
			DisplayName: "New Idea Submitted",
			Template:    "A new idea is waiting for discovery review: \"{title}\"",
			TargetType:  service.TargetStageApprovers,
			Priority:    "MEDIUM",
			Channels:    datatypes.JSON([]byte(`["web"]`)),
			IsActive:    true,
		},
		{
			Code:        events.TypeIdeaStageChanged,
			DisplayName: "Idea Stage Changed",
			Template:    "\"{title}\" moved from {previous_stage} to {new_stage}: {comment}",
			TargetType:  service.TargetOwnerAndApprovers,
			Priority:    "MEDIUM",
			Channels:    datatypes.JSON([]byte(`["web", "email"]`)),
			IsActive:    true,
		},
		{
			Code:        events.TypeIdeaRejected,
			DisplayName: "Idea Rejected",
			Template:    "\"{title}\" was rejected in {previous_stage}: {comment}",
			TargetType:  service.TargetOwner,
			Priority:    "HIGH",
			Channels:    datatypes.JSON([]byte(`["web", "email"]`)),
			IsActive:    true,
		},
		{
			Code:        events.TypeIdeaReachedMVP,
			DisplayName: "Idea Reached MVP",
			Template:    "\"{title}\" was approved for MVP: {comment}",
			TargetType:  service.TargetOwnerAndApprovers,
			Priority:    "HIGH",
			Channels:    datatypes.JSON([]byte(`["web", "email"]`)),
			IsActive:    true,
		},
	}
}
