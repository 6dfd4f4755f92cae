package contract

import (
	"context"
	"time"

	"idealab-be/internal/entity"

	"github.com/google/uuid"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, event *entity.OutboxEvent) error
	// ClaimPending locks up to limit pending rows, oldest first, skipping rows
	// another relay already holds.
	ClaimPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkAttemptFailed(ctx context.Context, id uuid.UUID, reason string, giveUp bool) error
}
