package implementation

import (
	"context"
	"errors"
	"time"

	"idealab-be/internal/entity"
	"idealab-be/internal/mapper"
	"idealab-be/internal/model"
	"idealab-be/internal/repository/contract"
	"idealab-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IdeaRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.IdeaMapper
}

func NewIdeaRepository(db *gorm.DB) contract.IdeaRepository {
	return &IdeaRepositoryImpl{
		db:     db,
		mapper: mapper.NewIdeaMapper(),
	}
}

func (r *IdeaRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *IdeaRepositoryImpl) Create(ctx context.Context, idea *entity.Idea) error {
	m := r.mapper.ToModel(idea)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*idea = *r.mapper.ToEntity(m)
	return nil
}

func (r *IdeaRepositoryImpl) Update(ctx context.Context, idea *entity.Idea) error {
	m := r.mapper.ToModel(idea)
	result := r.db.WithContext(ctx).
		Model(&model.Idea{}).
		Where("id = ?", idea.Id).
		Select("title", "description", "problem_statement", "target_audience", "category", "tags", "document_url", "updated_at").
		Updates(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *IdeaRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Idea, error) {
	var m model.Idea
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *IdeaRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Idea, error) {
	var models []*model.Idea
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *IdeaRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Idea{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *IdeaRepositoryImpl) FindForUpdate(ctx context.Context, id uuid.UUID) (*entity.Idea, error) {
	var m model.Idea
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

// CompareAndSetStage is the last line of defence against lost updates: the write
// only lands if nobody moved the idea since it was read.
func (r *IdeaRepositoryImpl) CompareAndSetStage(ctx context.Context, id uuid.UUID, expected, next entity.Stage, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Idea{}).
		Where("id = ? AND stage = ?", id, string(expected)).
		Updates(map[string]interface{}{
			"stage":      string(next),
			"updated_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
