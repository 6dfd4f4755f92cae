package implementation

import (
	"context"
	"errors"

	"idealab-be/internal/entity"
	"idealab-be/internal/mapper"
	"idealab-be/internal/model"
	"idealab-be/internal/repository/contract"
	"idealab-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatusUpdateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.HistoryMapper
}

func NewStatusUpdateRepository(db *gorm.DB) contract.StatusUpdateRepository {
	return &StatusUpdateRepositoryImpl{
		db:     db,
		mapper: mapper.NewHistoryMapper(),
	}
}

func (r *StatusUpdateRepositoryImpl) Create(ctx context.Context, update *entity.StatusUpdate) error {
	m := r.mapper.StatusUpdateToModel(update)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *StatusUpdateRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StatusUpdate, error) {
	var models []*model.StatusUpdate
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.StatusUpdatesToEntities(models), nil
}

func (r *StatusUpdateRepositoryImpl) NextSequence(ctx context.Context, ideaID uuid.UUID) (int, error) {
	var highest int
	err := r.db.WithContext(ctx).
		Model(&model.StatusUpdate{}).
		Where("idea_id = ?", ideaID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&highest).Error
	if err != nil {
		return 0, err
	}
	return highest + 1, nil
}

func (r *StatusUpdateRepositoryImpl) Latest(ctx context.Context, ideaID uuid.UUID) (*entity.StatusUpdate, error) {
	var m model.StatusUpdate
	err := r.db.WithContext(ctx).
		Where("idea_id = ?", ideaID).
		Order("sequence DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.StatusUpdateToEntity(&m), nil
}
