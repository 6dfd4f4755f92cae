package contract

import (
	"context"
	"time"

	"idealab-be/internal/entity"
	"idealab-be/internal/repository/specification"

	"github.com/google/uuid"
)

type IdeaRepository interface {
	Create(ctx context.Context, idea *entity.Idea) error
	// Update writes the owner-editable fields. It never touches stage.
	Update(ctx context.Context, idea *entity.Idea) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Idea, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Idea, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// FindForUpdate row-locks the idea until the surrounding transaction ends.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*entity.Idea, error)
	CompareAndSetStage(ctx context.Context, id uuid.UUID, expected, next entity.Stage, at time.Time) (bool, error)
}
