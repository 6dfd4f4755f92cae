package implementation

import (
	"context"
	"time"

	"idealab-be/internal/entity"
	"idealab-be/internal/mapper"
	"idealab-be/internal/model"
	"idealab-be/internal/repository/contract"
	"idealab-be/internal/repository/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OutboxRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.OutboxMapper
}

func NewOutboxRepository(db *gorm.DB) contract.OutboxRepository {
	return &OutboxRepositoryImpl{
		db:     db,
		mapper: mapper.NewOutboxMapper(),
	}
}

func (r *OutboxRepositoryImpl) Enqueue(ctx context.Context, event *entity.OutboxEvent) error {
	m, err := r.mapper.ToModel(event)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *OutboxRepositoryImpl) ClaimPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	var models []*model.OutboxEvent
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", string(entity.OutboxStatusPending)).
		Scopes(scope.OrderByCreatedAsc).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make([]*entity.OutboxEvent, 0, len(models))
	for _, m := range models {
		e, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *OutboxRepositoryImpl) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       string(entity.OutboxStatusPublished),
			"published_at": at,
			"last_error":   "",
		}).Error
}

func (r *OutboxRepositoryImpl) MarkAttemptFailed(ctx context.Context, id uuid.UUID, reason string, giveUp bool) error {
	updates := map[string]interface{}{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": reason,
	}
	if giveUp {
		updates["status"] = string(entity.OutboxStatusFailed)
	}
	return r.db.WithContext(ctx).
		Model(&model.OutboxEvent{}).
		Where("id = ?", id).
		Updates(updates).Error
}
