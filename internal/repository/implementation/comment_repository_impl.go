package implementation

import (
	"context"

	"idealab-be/internal/entity"
	"idealab-be/internal/mapper"
	"idealab-be/internal/model"
	"idealab-be/internal/repository/contract"
	"idealab-be/internal/repository/specification"

	"gorm.io/gorm"
)

type CommentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.HistoryMapper
}

func NewCommentRepository(db *gorm.DB) contract.CommentRepository {
	return &CommentRepositoryImpl{
		db:     db,
		mapper: mapper.NewHistoryMapper(),
	}
}

func (r *CommentRepositoryImpl) Create(ctx context.Context, comment *entity.Comment) error {
	m := r.mapper.CommentToModel(comment)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *CommentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Comment, error) {
	var models []*model.Comment
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.CommentsToEntities(models), nil
}
