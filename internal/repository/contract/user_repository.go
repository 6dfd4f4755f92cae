package contract

import (
	"context"

	"idealab-be/internal/entity"
	"idealab-be/internal/repository/specification"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
}

type RoleRepository interface {
	FindAll(ctx context.Context) ([]*entity.RoleDefinition, error)
	Upsert(ctx context.Context, role *entity.RoleDefinition) error
}
