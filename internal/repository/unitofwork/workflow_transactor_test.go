package unitofwork

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"idealab-be/internal/entity"
	"idealab-be/internal/repository/contract"
	"idealab-be/pkg/workflow"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("connection reset")

type recordingUoW struct {
	UnitOfWork

	beginErr    error
	commitErr   error
	rollbackErr error
	updates     contract.StatusUpdateRepository

	began, committed, rolledBack bool
}

func (u *recordingUoW) Begin(ctx context.Context) error {
	u.began = true
	return u.beginErr
}

func (u *recordingUoW) Commit() error {
	u.committed = true
	return u.commitErr
}

func (u *recordingUoW) Rollback() error {
	u.rolledBack = true
	return u.rollbackErr
}

func (u *recordingUoW) StatusUpdateRepository() contract.StatusUpdateRepository {
	return u.updates
}

func (u *recordingUoW) CommentRepository() contract.CommentRepository {
	return nil
}

type singleFactory struct{ uow *recordingUoW }

func (f singleFactory) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return f.uow
}

type duplicateUpdates struct {
	contract.StatusUpdateRepository
	err error
}

func (d duplicateUpdates) Create(ctx context.Context, update *entity.StatusUpdate) error {
	return d.err
}

func noop(ctx context.Context, tx workflow.Tx) error { return nil }

func TestWithinTransactionCommitsOnSuccess(t *testing.T) {
	uow := &recordingUoW{}
	err := NewWorkflowTransactor(singleFactory{uow}).WithinTransaction(context.Background(), noop)

	require.NoError(t, err)
	assert.True(t, uow.began)
	assert.True(t, uow.committed)
	assert.False(t, uow.rolledBack)
}

func TestWithinTransactionRollsBackWhenFnFails(t *testing.T) {
	uow := &recordingUoW{}
	failure := workflow.Forbidden("role %q cannot act", "employee")

	err := NewWorkflowTransactor(singleFactory{uow}).WithinTransaction(context.Background(),
		func(ctx context.Context, tx workflow.Tx) error { return failure })

	assert.ErrorIs(t, err, workflow.ErrForbidden)
	assert.True(t, uow.rolledBack)
	assert.False(t, uow.committed)
}

func TestWithinTransactionKeepsKindWhenRollbackFails(t *testing.T) {
	uow := &recordingUoW{rollbackErr: errDown}

	err := NewWorkflowTransactor(singleFactory{uow}).WithinTransaction(context.Background(),
		func(ctx context.Context, tx workflow.Tx) error { return workflow.Conflict("moved") })

	assert.Equal(t, workflow.KindConflict, workflow.KindOf(err))
	assert.Contains(t, err.Error(), "rollback failed")
}

func TestWithinTransactionBeginFailureSkipsFn(t *testing.T) {
	uow := &recordingUoW{beginErr: errDown}
	called := false

	err := NewWorkflowTransactor(singleFactory{uow}).WithinTransaction(context.Background(),
		func(ctx context.Context, tx workflow.Tx) error { called = true; return nil })

	assert.ErrorIs(t, err, workflow.ErrPersistence)
	assert.ErrorIs(t, err, errDown)
	assert.False(t, called)
	assert.False(t, uow.committed)
}

func TestWithinTransactionCommitFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want *workflow.Error
	}{
		{"plain", errDown, workflow.ErrPersistence},
		{"unique violation", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "23505"}), workflow.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uow := &recordingUoW{commitErr: tc.err}
			err := NewWorkflowTransactor(singleFactory{uow}).WithinTransaction(context.Background(), noop)
			assert.ErrorIs(t, err, tc.want)
			assert.False(t, uow.rolledBack)
		})
	}
}

func TestWithinTransactionRollsBackAndRepanics(t *testing.T) {
	uow := &recordingUoW{}

	assert.Panics(t, func() {
		_ = NewWorkflowTransactor(singleFactory{uow}).WithinTransaction(context.Background(),
			func(ctx context.Context, tx workflow.Tx) error { panic("boom") })
	})
	assert.True(t, uow.rolledBack)
	assert.False(t, uow.committed)
}

func TestInsertStatusUpdateDuplicateSequenceIsConflict(t *testing.T) {
	record := &entity.StatusUpdate{Id: uuid.New(), IdeaId: uuid.New(), Sequence: 3}
	cases := []struct {
		name string
		err  error
		want *workflow.Error
	}{
		{"duplicate", &pgconn.PgError{Code: "23505"}, workflow.ErrConflict},
		{"other", errDown, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uow := &recordingUoW{updates: duplicateUpdates{err: tc.err}}
			var got error
			err := NewWorkflowTransactor(singleFactory{uow}).WithinTransaction(context.Background(),
				func(ctx context.Context, tx workflow.Tx) error {
					got = tx.History().InsertStatusUpdate(ctx, record)
					return got
				})

			require.Error(t, err)
			assert.True(t, uow.rolledBack)
			if tc.want != nil {
				assert.ErrorIs(t, got, tc.want)
			} else {
				assert.ErrorIs(t, got, errDown)
				assert.Empty(t, workflow.KindOf(got))
			}
		})
	}
}
