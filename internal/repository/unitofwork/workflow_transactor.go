package unitofwork

import (
	"context"
	"fmt"

	"idealab-be/internal/entity"
	"idealab-be/internal/repository/contract"
	"idealab-be/internal/repository/implementation"
	"idealab-be/pkg/workflow"

	"github.com/google/uuid"
)

// WorkflowTransactor runs workflow engine transactions on a unit of work.
type WorkflowTransactor struct {
	factory RepositoryFactory
}

func NewWorkflowTransactor(factory RepositoryFactory) *WorkflowTransactor {
	return &WorkflowTransactor{factory: factory}
}

func (t *WorkflowTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx workflow.Tx) error) (err error) {
	uow := t.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return workflow.Persistence("failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = uow.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, workflowTx{uow: uow}); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := uow.Commit(); err != nil {
		if implementation.IsUniqueViolation(err) {
			return workflow.Conflict("concurrent transition on the same idea")
		}
		return workflow.Persistence("failed to commit transaction", err)
	}
	return nil
}

type workflowTx struct {
	uow UnitOfWork
}

func (t workflowTx) Ideas() workflow.IdeaStore {
	return t.uow.IdeaRepository()
}

func (t workflowTx) History() workflow.HistoryStore {
	return historyStore{
		updates:  t.uow.StatusUpdateRepository(),
		comments: t.uow.CommentRepository(),
	}
}

func (t workflowTx) Outbox() workflow.OutboxStore {
	return t.uow.OutboxRepository()
}

type historyStore struct {
	updates  contract.StatusUpdateRepository
	comments contract.CommentRepository
}

func (h historyStore) NextSequence(ctx context.Context, ideaID uuid.UUID) (int, error) {
	return h.updates.NextSequence(ctx, ideaID)
}

func (h historyStore) Latest(ctx context.Context, ideaID uuid.UUID) (*entity.StatusUpdate, error) {
	return h.updates.Latest(ctx, ideaID)
}

// InsertStatusUpdate reports a duplicate (idea_id, sequence) as a lost race.
func (h historyStore) InsertStatusUpdate(ctx context.Context, record *entity.StatusUpdate) error {
	if err := h.updates.Create(ctx, record); err != nil {
		if implementation.IsUniqueViolation(err) {
			return workflow.Conflict("status sequence %d for idea %s already taken", record.Sequence, record.IdeaId)
		}
		return err
	}
	return nil
}

func (h historyStore) InsertComment(ctx context.Context, comment *entity.Comment) error {
	return h.comments.Create(ctx, comment)
}
