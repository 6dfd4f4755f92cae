package workflow

import (
	"context"
	"time"

	"idealab-be/internal/entity"

	"github.com/google/uuid"
)

// IdeaStore is the idea side of a transaction.
type IdeaStore interface {
	// FindForUpdate returns nil, nil when the idea does not exist. Implementations
	// lock the row for the rest of the transaction where the store supports it.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*entity.Idea, error)
	// CompareAndSetStage writes next and stamps updated_at with at, only if the
	// stored stage still equals expected.
	CompareAndSetStage(ctx context.Context, id uuid.UUID, expected, next entity.Stage, at time.Time) (bool, error)
}

// HistoryStore appends audit records.
type HistoryStore interface {
	NextSequence(ctx context.Context, ideaID uuid.UUID) (int, error)
	// Latest returns the most recent status update of the idea, or nil.
	Latest(ctx context.Context, ideaID uuid.UUID) (*entity.StatusUpdate, error)
	InsertStatusUpdate(ctx context.Context, record *entity.StatusUpdate) error
	InsertComment(ctx context.Context, comment *entity.Comment) error
}

type OutboxStore interface {
	Enqueue(ctx context.Context, event *entity.OutboxEvent) error
}

type Tx interface {
	Ideas() IdeaStore
	History() HistoryStore
	Outbox() OutboxStore
}

// Transactor runs fn inside one transaction. A non-nil return from fn, or a panic,
// rolls back every write made through tx.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// RoleResolver is the identity provider. ok is false when the user has no
// resolvable role.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID uuid.UUID) (role entity.Role, ok bool, err error)
}
