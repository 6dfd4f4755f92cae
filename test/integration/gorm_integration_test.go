package integration

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"idealab-be/internal/config"
	"idealab-be/internal/dto"
	"idealab-be/internal/entity"
	"idealab-be/internal/model"
	"idealab-be/internal/pkg/logger"
	"idealab-be/internal/repository/memory"
	"idealab-be/internal/repository/specification"
	"idealab-be/internal/repository/unitofwork"
	"idealab-be/internal/service"
	"idealab-be/pkg/bus"
	"idealab-be/pkg/database"
	"idealab-be/pkg/workflow"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, database.Ping(context.Background(), db))

	require.NoError(t, db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Idea{},
		&model.StatusUpdate{},
		&model.Comment{},
		&model.OutboxEvent{},
		&model.NotificationType{},
		&model.Notification{},
		&model.UserNotificationPreference{},
	))
	return db
}

func createUser(t *testing.T, factory unitofwork.RepositoryFactory, role entity.Role) uuid.UUID {
	t.Helper()
	user := &entity.User{
		Id:       uuid.New(),
		Email:    "integration-" + uuid.NewString() + "@example.com",
		FullName: "Integration " + string(role),
		Role:     role,
	}
	require.NoError(t, factory.NewUnitOfWork(context.Background()).UserRepository().Create(context.Background(), user))
	return user.Id
}

func TestWorkflowAgainstPostgres(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	nop := logger.NewNopLogger()

	factory := unitofwork.NewRepositoryFactory(db)
	policy := workflow.NewRolePolicy()
	roles := service.NewRoleService(factory, service.FallbackRoleRegistry(nil), policy, memory.NewRoleCache(time.Minute))
	engine := workflow.NewEngine(policy, workflow.NewTransitionTable(), unitofwork.NewWorkflowTransactor(factory), roles, nop)
	ideas := service.NewIdeaService(factory, engine, roles, nop)

	owner := createUser(t, factory, entity.RoleEmployee)
	expertA := createUser(t, factory, entity.RoleProductExpert)
	expertB := createUser(t, factory, entity.RoleProductExpert)

	idea, err := ideas.Submit(ctx, owner, &dto.SubmitIdeaRequest{
		Title:       "Integration idea " + uuid.NewString()[:8],
		Description: "Exercises the gorm repositories",
		Category:    "technology",
		Tags:        []string{"integration"},
	})
	require.NoError(t, err)

	t.Run("Concurrent accepts commit exactly once", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, actor := range []uuid.UUID{expertA, expertB} {
			wg.Add(1)
			go func(i int, actor uuid.UUID) {
				defer wg.Done()
				_, errs[i] = ideas.ApplyAction(ctx, actor, &dto.ApplyActionRequest{
					IdeaId:        idea.Id,
					Action:        "accept",
					Comment:       "race " + actor.String(),
					ExpectedStage: "discovery",
				})
			}(i, actor)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.Equal(t, workflow.KindConflict, workflow.KindOf(err))
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("History replays to the current stage", func(t *testing.T) {
		history, err := ideas.History(ctx, owner, idea.Id)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Nil(t, history[0].PreviousStage)
		assert.Equal(t, string(entity.StageBasicValidation), history[1].NewStage)

		report, err := ideas.VerifyHistory(ctx, owner, idea.Id)
		require.NoError(t, err)
		assert.True(t, report.Consistent, report.Problems)
	})

	t.Run("Queue lists the idea for product experts", func(t *testing.T) {
		queue, err := ideas.Queue(ctx, expertA, &dto.ListIdeasQuery{Stage: "basic_validation", Limit: 100})
		require.NoError(t, err)
		found := false
		for _, item := range queue.Items {
			found = found || item.Id == idea.Id
		}
		assert.True(t, found)
	})

	t.Run("Outbox relay publishes committed events", func(t *testing.T) {
		local := bus.NewLocalBus()
		defer local.Close()
		relay := service.NewOutboxRelay(factory, local, config.WorkflowConfig{OutboxBatchSize: 500, PublishRetryAttempts: 1}, nop)

		_, err := relay.RelayOnce(ctx)
		require.NoError(t, err)

		var pending int64
		require.NoError(t, db.Model(&model.OutboxEvent{}).
			Where("aggregate_id = ? AND status = ?", idea.Id, string(entity.OutboxStatusPending)).
			Count(&pending).Error)
		assert.Zero(t, pending)
	})

	t.Run("Users are found by role", func(t *testing.T) {
		users, err := factory.NewUnitOfWork(ctx).UserRepository().FindAll(ctx,
			specification.InRoles{Roles: []entity.Role{entity.RoleProductExpert}},
		)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(users), 2)
	})
}
