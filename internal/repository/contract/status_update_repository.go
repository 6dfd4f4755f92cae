package contract

import (
	"context"

	"idealab-be/internal/entity"
	"idealab-be/internal/repository/specification"

	"github.com/google/uuid"
)

type StatusUpdateRepository interface {
	Create(ctx context.Context, update *entity.StatusUpdate) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StatusUpdate, error)
	NextSequence(ctx context.Context, ideaID uuid.UUID) (int, error)
	Latest(ctx context.Context, ideaID uuid.UUID) (*entity.StatusUpdate, error)
}
