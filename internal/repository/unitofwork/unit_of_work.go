package unitofwork

import (
	"context"

	"idealab-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	IdeaRepository() contract.IdeaRepository
	StatusUpdateRepository() contract.StatusUpdateRepository
	CommentRepository() contract.CommentRepository
	OutboxRepository() contract.OutboxRepository
	UserRepository() contract.UserRepository
	RoleRepository() contract.RoleRepository
	NotificationRepository() contract.NotificationRepository
}
