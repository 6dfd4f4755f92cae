package workflow_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"idealab-be/internal/entity"
	"idealab-be/pkg/workflow"

	"github.com/google/uuid"
)

var errInjected = errors.New("injected failure")

// memStore serializes transactions with one lock and restores a snapshot when
// the transaction function fails.
type memStore struct {
	mu       sync.Mutex
	ideas    map[uuid.UUID]entity.Idea
	updates  []entity.StatusUpdate
	comments []entity.Comment
	outbox   []entity.OutboxEvent
	roles    map[uuid.UUID]entity.Role

	failOn    string
	beforeCAS func(s *memStore, id uuid.UUID)
}

func newMemStore() *memStore {
	return &memStore{
		ideas: make(map[uuid.UUID]entity.Idea),
		roles: make(map[uuid.UUID]entity.Role),
	}
}

func (s *memStore) addIdea(stage entity.Stage) entity.Idea {
	idea := entity.Idea{
		Id:          uuid.New(),
		Title:       "Internal tooling marketplace",
		Category:    entity.CategoryProduct,
		Stage:       stage,
		SubmittedBy: uuid.New(),
	}
	s.ideas[idea.Id] = idea
	s.updates = append(s.updates, entity.StatusUpdate{
		Id:        uuid.New(),
		IdeaId:    idea.Id,
		Sequence:  1,
		NewStage:  entity.StageDiscovery,
		Action:    entity.ActionSubmit,
		Comment:   "Idea submitted",
		UpdatedBy: idea.SubmittedBy,
	})
	return idea
}

func (s *memStore) addUser(role entity.Role) uuid.UUID {
	id := uuid.New()
	if role != "" {
		s.roles[id] = role
	}
	return id
}

func (s *memStore) stageOf(id uuid.UUID) entity.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ideas[id].Stage
}

func (s *memStore) updatesFor(id uuid.UUID) []entity.StatusUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.StatusUpdate, 0)
	for _, u := range s.updates {
		if u.IdeaId == id {
			out = append(out, u)
		}
	}
	return out
}

func (s *memStore) commentsFor(id uuid.UUID) []entity.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Comment, 0)
	for _, c := range s.comments {
		if c.IdeaId == id {
			out = append(out, c)
		}
	}
	return out
}

func (s *memStore) outboxCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outbox)
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx workflow.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ideas := make(map[uuid.UUID]entity.Idea, len(s.ideas))
	for k, v := range s.ideas {
		ideas[k] = v
	}
	updates := append([]entity.StatusUpdate(nil), s.updates...)
	comments := append([]entity.Comment(nil), s.comments...)
	outbox := append([]entity.OutboxEvent(nil), s.outbox...)

	if err := fn(ctx, memTx{s}); err != nil {
		s.ideas, s.updates, s.comments, s.outbox = ideas, updates, comments, outbox
		return err
	}
	return nil
}

func (s *memStore) ResolveRole(_ context.Context, userID uuid.UUID) (entity.Role, bool, error) {
	if s.failOn == "role" {
		return "", false, errInjected
	}
	role, ok := s.roles[userID]
	return role, ok, nil
}

type memTx struct{ s *memStore }

func (t memTx) Ideas() workflow.IdeaStore      { return t }
func (t memTx) History() workflow.HistoryStore { return t }
func (t memTx) Outbox() workflow.OutboxStore   { return t }

func (t memTx) FindForUpdate(_ context.Context, id uuid.UUID) (*entity.Idea, error) {
	if t.s.failOn == "load" {
		return nil, errInjected
	}
	idea, ok := t.s.ideas[id]
	if !ok {
		return nil, nil
	}
	return &idea, nil
}

func (t memTx) CompareAndSetStage(_ context.Context, id uuid.UUID, expected, next entity.Stage, at time.Time) (bool, error) {
	if t.s.beforeCAS != nil {
		t.s.beforeCAS(t.s, id)
	}
	if t.s.failOn == "stage" {
		return false, errInjected
	}
	idea, ok := t.s.ideas[id]
	if !ok || idea.Stage != expected {
		return false, nil
	}
	idea.Stage = next
	idea.UpdatedAt = &at
	t.s.ideas[id] = idea
	return true, nil
}

func (t memTx) NextSequence(_ context.Context, id uuid.UUID) (int, error) {
	highest := 0
	for _, u := range t.s.updates {
		if u.IdeaId == id && u.Sequence > highest {
			highest = u.Sequence
		}
	}
	return highest + 1, nil
}

func (t memTx) Latest(_ context.Context, id uuid.UUID) (*entity.StatusUpdate, error) {
	var latest *entity.StatusUpdate
	for i := range t.s.updates {
		u := t.s.updates[i]
		if u.IdeaId == id && (latest == nil || u.Sequence > latest.Sequence) {
			latest = &u
		}
	}
	return latest, nil
}

func (t memTx) InsertStatusUpdate(_ context.Context, record *entity.StatusUpdate) error {
	if t.s.failOn == "status" {
		return errInjected
	}
	t.s.updates = append(t.s.updates, *record)
	return nil
}

func (t memTx) InsertComment(_ context.Context, comment *entity.Comment) error {
	if t.s.failOn == "comment" {
		return errInjected
	}
	t.s.comments = append(t.s.comments, *comment)
	return nil
}

func (t memTx) Enqueue(_ context.Context, event *entity.OutboxEvent) error {
	if t.s.failOn == "outbox" {
		return errInjected
	}
	t.s.outbox = append(t.s.outbox, *event)
	return nil
}
