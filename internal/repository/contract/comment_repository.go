package contract

import (
	"context"

	"idealab-be/internal/entity"
	"idealab-be/internal/repository/specification"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Comment, error)
}
