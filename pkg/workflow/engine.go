package workflow

import (
	"context"
	"strings"
	"time"

	"idealab-be/internal/entity"
	"idealab-be/internal/pkg/logger"
	"idealab-be/pkg/events"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const logModule = "WORKFLOW"

// ActionRequest is one reviewer decision on one idea.
type ActionRequest struct {
	IdeaID  uuid.UUID
	ActorID uuid.UUID
	Action  entity.Action
	Comment string
	// ExpectedStage is the stage the caller saw when it chose Action. When set, a
	// mismatch fails with KindConflict instead of acting on a newer stage.
	ExpectedStage *entity.Stage
	// IdempotencyKey identifies one client decision. It is stored on the status
	// update, and a request carrying the key of the latest update is a replay.
	IdempotencyKey string
}

// TransitionRecord is everything an accepted transition wrote.
type TransitionRecord struct {
	Idea          *entity.Idea
	PreviousStage entity.Stage
	StatusUpdate  *entity.StatusUpdate
	Comment       *entity.Comment
	ActorRole     entity.Role
}

type Engine struct {
	policy *RolePolicy
	table  *TransitionTable
	tx     Transactor
	roles  RoleResolver
	logger logger.ILogger
	now    func() time.Time
	tracer trace.Tracer
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(policy *RolePolicy, table *TransitionTable, tx Transactor, roles RoleResolver, log logger.ILogger, opts ...Option) *Engine {
	e := &Engine{
		policy: policy,
		table:  table,
		tx:     tx,
		roles:  roles,
		logger: log,
		now:    time.Now,
		tracer: otel.Tracer("idealab-be/workflow"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Policy() *RolePolicy {
	return e.policy
}

func (e *Engine) Table() *TransitionTable {
	return e.table
}

// AvailableActions is the intersection of the role policy and the transition table.
func (e *Engine) AvailableActions(role entity.Role, stage entity.Stage) []entity.Action {
	if !e.policy.CanManage(role, stage) {
		return []entity.Action{}
	}
	return e.table.ActionsFrom(stage)
}

// ApplyAction moves an idea one step through the pipeline and returns it with its new stage.
func (e *Engine) ApplyAction(ctx context.Context, ideaID, actorID uuid.UUID, action entity.Action, comment string) (*entity.Idea, error) {
	rec, err := e.Apply(ctx, ActionRequest{IdeaID: ideaID, ActorID: actorID, Action: action, Comment: comment})
	if err != nil {
		return nil, err
	}
	return rec.Idea, nil
}

// Apply validates and executes one transition. The stage change, its status
// update, the mirroring internal comment and the outbox event commit together or
// not at all.
func (e *Engine) Apply(ctx context.Context, req ActionRequest) (*TransitionRecord, error) {
	ctx, span := e.tracer.Start(ctx, "workflow.Apply", trace.WithAttributes(
		attribute.String("idea.id", req.IdeaID.String()),
		attribute.String("workflow.action", string(req.Action)),
	))
	defer span.End()

	rec, err := e.apply(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
		e.logFailure(req, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("idea.stage", string(rec.Idea.Stage)))
	e.logger.Info(logModule, "Idea stage changed", map[string]interface{}{
		"ideaId":        req.IdeaID.String(),
		"actorId":       req.ActorID.String(),
		"actorRole":     string(rec.ActorRole),
		"action":        string(req.Action),
		"previousStage": string(rec.PreviousStage),
		"newStage":      string(rec.Idea.Stage),
	})
	return rec, nil
}

func (e *Engine) apply(ctx context.Context, req ActionRequest) (*TransitionRecord, error) {
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return nil, Validation("comment is required")
	}
	if !req.Action.IsValid() {
		return nil, Validation("unknown action %q", req.Action)
	}

	var rec *TransitionRecord
	err := e.tx.WithinTransaction(ctx, func(ctx context.Context, tx Tx) error {
		idea, err := tx.Ideas().FindForUpdate(ctx, req.IdeaID)
		if err != nil {
			return Persistence("failed to load idea", err)
		}
		if idea == nil {
			return NotFound("idea %s not found", req.IdeaID)
		}

		// No action leaves a terminal stage, whoever asks.
		if idea.Stage.IsTerminal() {
			return InvalidTransition("idea is in terminal stage %q", idea.Stage)
		}

		role, ok, err := e.roles.ResolveRole(ctx, req.ActorID)
		if err != nil {
			return Persistence("failed to resolve role", err)
		}
		if !ok {
			return Unauthorized("user %s has no role", req.ActorID)
		}

		if !e.policy.CanManage(role, idea.Stage) {
			return Forbidden("role %q cannot act on ideas in stage %q", role, idea.Stage)
		}

		next, err := e.table.NextStage(idea.Stage, req.Action)
		if err != nil {
			return err
		}

		if req.ExpectedStage != nil && *req.ExpectedStage != idea.Stage {
			return Conflict("idea moved from %q to %q before this action", *req.ExpectedStage, idea.Stage)
		}

		latest, err := tx.History().Latest(ctx, idea.Id)
		if err != nil {
			return Persistence("failed to load latest status update", err)
		}
		key := strings.TrimSpace(req.IdempotencyKey)
		if isReplay(latest, req, key, comment) {
			return InvalidTransition("%q by this user was already applied; idea is now in %q", req.Action, idea.Stage)
		}

		now := e.now()
		previous := idea.Stage
		swapped, err := tx.Ideas().CompareAndSetStage(ctx, idea.Id, previous, next, now)
		if err != nil {
			return Persistence("failed to update idea stage", err)
		}
		if !swapped {
			return Conflict("idea %s changed stage concurrently", idea.Id)
		}

		seq, err := tx.History().NextSequence(ctx, idea.Id)
		if err != nil {
			return Persistence("failed to allocate status sequence", err)
		}

		prev := previous
		update := &entity.StatusUpdate{
			Id:            uuid.New(),
			IdeaId:        idea.Id,
			Sequence:      seq,
			PreviousStage: &prev,
			NewStage:      next,
			Action:        req.Action,
			Comment:       comment,
			UpdatedBy:     req.ActorID,
			CreatedAt:     now,
		}
		if key != "" {
			update.IdempotencyKey = &key
		}
		if err := tx.History().InsertStatusUpdate(ctx, update); err != nil {
			return wrapPersistence("failed to insert status update", err)
		}

		note := &entity.Comment{
			Id:         uuid.New(),
			IdeaId:     idea.Id,
			UserId:     req.ActorID,
			Content:    comment,
			IsInternal: true,
			CreatedAt:  now,
		}
		if err := tx.History().InsertComment(ctx, note); err != nil {
			return wrapPersistence("failed to insert comment", err)
		}

		idea.Stage = next
		idea.UpdatedAt = &now

		evt := events.IdeaStageChanged(idea.Id, idea.Title, idea.SubmittedBy, req.ActorID, previous, next, req.Action, comment, now)
		if err := tx.Outbox().Enqueue(ctx, &entity.OutboxEvent{
			Id:          uuid.New(),
			EventType:   evt.EventType(),
			AggregateId: idea.Id,
			Payload:     evt.Payload(),
			Status:      entity.OutboxStatusPending,
			CreatedAt:   now,
		}); err != nil {
			return wrapPersistence("failed to enqueue notification event", err)
		}

		rec = &TransitionRecord{
			Idea:          idea,
			PreviousStage: previous,
			StatusUpdate:  update,
			Comment:       note,
			ActorRole:     role,
		}
		return nil
	})
	if err != nil {
		return nil, wrapPersistence("transaction failed", err)
	}
	return rec, nil
}

// isReplay reports whether req repeats the transition that produced the idea's
// current stage. With a key only the key decides. Without one, a caller that
// named the current stage has seen the result of the earlier call, so it is not
// repeating it; anyone else repeating actor, action and comment is.
func isReplay(latest *entity.StatusUpdate, req ActionRequest, key, comment string) bool {
	if latest == nil || latest.PreviousStage == nil {
		return false
	}
	if key != "" {
		return latest.IdempotencyKey != nil && *latest.IdempotencyKey == key
	}
	if req.ExpectedStage != nil {
		return false
	}
	return latest.UpdatedBy == req.ActorID &&
		latest.Action == req.Action &&
		latest.Comment == comment
}

// wrapPersistence keeps classified errors as they are and classifies the rest.
func wrapPersistence(message string, err error) error {
	if KindOf(err) != "" {
		return err
	}
	return Persistence(message, err)
}

func (e *Engine) logFailure(req ActionRequest, err error) {
	details := map[string]interface{}{
		"ideaId":  req.IdeaID.String(),
		"actorId": req.ActorID.String(),
		"action":  string(req.Action),
		"kind":    string(KindOf(err)),
		"error":   err,
	}
	if KindOf(err) == KindPersistence {
		e.logger.Error(logModule, "Transition failed to persist", details)
		return
	}
	e.logger.Warn(logModule, "Transition rejected", details)
}
