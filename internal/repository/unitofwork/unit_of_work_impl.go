package unitofwork

import (
	"context"
	"fmt"

	"idealab-be/internal/repository/contract"
	"idealab-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) IdeaRepository() contract.IdeaRepository {
	return implementation.NewIdeaRepository(u.getDB())
}

func (u *UnitOfWorkImpl) StatusUpdateRepository() contract.StatusUpdateRepository {
	return implementation.NewStatusUpdateRepository(u.getDB())
}

func (u *UnitOfWorkImpl) CommentRepository() contract.CommentRepository {
	return implementation.NewCommentRepository(u.getDB())
}

func (u *UnitOfWorkImpl) OutboxRepository() contract.OutboxRepository {
	return implementation.NewOutboxRepository(u.getDB())
}

func (u *UnitOfWorkImpl) UserRepository() contract.UserRepository {
	return implementation.NewUserRepository(u.getDB())
}

func (u *UnitOfWorkImpl) RoleRepository() contract.RoleRepository {
	return implementation.NewRoleRepository(u.getDB())
}

func (u *UnitOfWorkImpl) NotificationRepository() contract.NotificationRepository {
	return implementation.NewNotificationRepository(u.getDB())
}
