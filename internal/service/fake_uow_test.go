package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"idealab-be/internal/entity"
	"idealab-be/internal/model"
	"idealab-be/internal/pkg/logger"
	"idealab-be/internal/repository/contract"
	"idealab-be/internal/repository/memory"
	"idealab-be/internal/repository/specification"
	"idealab-be/internal/repository/unitofwork"
	"idealab-be/pkg/workflow"

	"github.com/google/uuid"
)

var errStoreDown = errors.New("store unavailable")

// memState is one consistent copy of every table the services touch.
type memState struct {
	ideas         map[uuid.UUID]entity.Idea
	updates       []entity.StatusUpdate
	comments      []entity.Comment
	outbox        []entity.OutboxEvent
	users         map[uuid.UUID]entity.User
	roles         []entity.RoleDefinition
	notifications []model.Notification
	notifTypes    map[string]model.NotificationType
	prefs         map[uuid.UUID]model.UserNotificationPreference
}

func newMemState() *memState {
	return &memState{
		ideas:      make(map[uuid.UUID]entity.Idea),
		users:      make(map[uuid.UUID]entity.User),
		notifTypes: make(map[string]model.NotificationType),
		prefs:      make(map[uuid.UUID]model.UserNotificationPreference),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.ideas {
		c.ideas[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.notifTypes {
		c.notifTypes[k] = v
	}
	for k, v := range s.prefs {
		c.prefs[k] = v
	}
	c.updates = append(c.updates, s.updates...)
	c.comments = append(c.comments, s.comments...)
	c.outbox = append(c.outbox, s.outbox...)
	c.roles = append(c.roles, s.roles...)
	c.notifications = append(c.notifications, s.notifications...)
	return c
}

// memDB is a RepositoryFactory whose transactions work on a snapshot that
// replaces the committed state on Commit.
type memDB struct {
	mu     sync.Mutex
	state  *memState
	failOn map[string]bool
}

func newMemDB() *memDB {
	return &memDB{state: newMemState(), failOn: make(map[string]bool)}
}

func (d *memDB) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUoW{db: d}
}

func (d *memDB) fail(op string) error {
	if d.failOn[op] {
		return errStoreDown
	}
	return nil
}

func (d *memDB) addUser(role entity.Role) entity.User {
	u := entity.User{Id: uuid.New(), Email: uuid.NewString()[:8] + "@corp.example", FullName: "User " + string(role), Role: role}
	d.state.users[u.Id] = u
	return u
}

func (d *memDB) snapshot() *memState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.clone()
}

type memUoW struct {
	db *memDB
	tx *memState
}

func (u *memUoW) Begin(ctx context.Context) error {
	if u.tx != nil {
		return errors.New("transaction already started")
	}
	if err := u.db.fail("begin"); err != nil {
		return err
	}
	u.db.mu.Lock()
	u.tx = u.db.state.clone()
	u.db.mu.Unlock()
	return nil
}

func (u *memUoW) Commit() error {
	if u.tx == nil {
		return errors.New("no transaction to commit")
	}
	if err := u.db.fail("commit"); err != nil {
		u.tx = nil
		return err
	}
	u.db.mu.Lock()
	u.db.state = u.tx
	u.db.mu.Unlock()
	u.tx = nil
	return nil
}

func (u *memUoW) Rollback() error {
	if u.tx == nil {
		return errors.New("no transaction to rollback")
	}
	u.tx = nil
	return nil
}

// with runs fn against the transaction snapshot, or the committed state under lock.
func (u *memUoW) with(fn func(s *memState) error) error {
	if u.tx != nil {
		return fn(u.tx)
	}
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	return fn(u.db.state)
}

func (u *memUoW) IdeaRepository() contract.IdeaRepository                 { return memIdeas{u} }
func (u *memUoW) StatusUpdateRepository() contract.StatusUpdateRepository { return memUpdates{u} }
func (u *memUoW) CommentRepository() contract.CommentRepository           { return memComments{u} }
func (u *memUoW) OutboxRepository() contract.OutboxRepository             { return memOutbox{u} }
func (u *memUoW) UserRepository() contract.UserRepository                 { return memUsers{u} }
func (u *memUoW) RoleRepository() contract.RoleRepository                 { return memRoles{u} }
func (u *memUoW) NotificationRepository() contract.NotificationRepository { return memNotifications{u} }

// query is the subset of specifications the fakes understand.
type memQuery struct {
	id         *uuid.UUID
	ideaID     *uuid.UUID
	stage      *entity.Stage
	stages     []entity.Stage
	stagesSet  bool
	category   *entity.Category
	submitter  *uuid.UUID
	title      string
	external   bool
	roles      []entity.Role
	newestLast bool
	newest     bool
	limit      int
	offset     int
}

func parseSpecs(specs []specification.Specification) memQuery {
	q := memQuery{}
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			id := s.ID
			q.id = &id
		case specification.ByIdeaID:
			id := s.IdeaID
			q.ideaID = &id
		case specification.ByStage:
			st := s.Stage
			q.stage = &st
		case specification.InStages:
			q.stages, q.stagesSet = s.Stages, true
		case specification.ByCategory:
			c := s.Category
			q.category = &c
		case specification.SubmittedBy:
			id := s.UserID
			q.submitter = &id
		case specification.TitleContains:
			q.title = strings.ToLower(s.Query)
		case specification.ExternalOnly:
			q.external = true
		case specification.InRoles:
			q.roles = s.Roles
		case specification.Chronological:
			q.newestLast = true
		case specification.OrderBy:
			q.newest = s.Desc
		case specification.Pagination:
			q.limit, q.offset = s.Limit, s.Offset
		}
	}
	return q
}

func (q memQuery) matchIdea(i entity.Idea) bool {
	if q.id != nil && i.Id != *q.id {
		return false
	}
	if q.stage != nil && i.Stage != *q.stage {
		return false
	}
	if q.stagesSet {
		found := false
		for _, st := range q.stages {
			if st == i.Stage {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if q.category != nil && i.Category != *q.category {
		return false
	}
	if q.submitter != nil && i.SubmittedBy != *q.submitter {
		return false
	}
	if q.title != "" && !strings.Contains(strings.ToLower(i.Title), q.title) {
		return false
	}
	return true
}

func pageOf[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type memIdeas struct{ u *memUoW }

func (r memIdeas) Create(ctx context.Context, idea *entity.Idea) error {
	if err := r.u.db.fail("idea.create"); err != nil {
		return err
	}
	return r.u.with(func(s *memState) error {
		s.ideas[idea.Id] = *idea
		return nil
	})
}

func (r memIdeas) Update(ctx context.Context, idea *entity.Idea) error {
	return r.u.with(func(s *memState) error {
		stored, ok := s.ideas[idea.Id]
		if !ok {
			return errors.New("record not found")
		}
		updated := *idea
		updated.Stage = stored.Stage
		s.ideas[idea.Id] = updated
		return nil
	})
}

func (r memIdeas) filtered(specs []specification.Specification) []*entity.Idea {
	q := parseSpecs(specs)
	out := make([]*entity.Idea, 0)
	_ = r.u.with(func(s *memState) error {
		for _, i := range s.ideas {
			if q.matchIdea(i) {
				c := i
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(a, b int) bool {
		if q.newest {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return pageOf(out, q.limit, q.offset)
}

func (r memIdeas) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Idea, error) {
	if err := r.u.db.fail("idea.find"); err != nil {
		return nil, err
	}
	found := r.filtered(specs)
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r memIdeas) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Idea, error) {
	return r.filtered(specs), nil
}

func (r memIdeas) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.filtered(specs))), nil
}

func (r memIdeas) FindForUpdate(ctx context.Context, id uuid.UUID) (*entity.Idea, error) {
	return r.FindOne(ctx, specification.ByID{ID: id})
}

func (r memIdeas) CompareAndSetStage(ctx context.Context, id uuid.UUID, expected, next entity.Stage, at time.Time) (bool, error) {
	swapped := false
	err := r.u.with(func(s *memState) error {
		i, ok := s.ideas[id]
		if !ok || i.Stage != expected {
			return nil
		}
		i.Stage = next
		i.UpdatedAt = &at
		s.ideas[id] = i
		swapped = true
		return nil
	})
	return swapped, err
}

type memUpdates struct{ u *memUoW }

func (r memUpdates) Create(ctx context.Context, update *entity.StatusUpdate) error {
	if err := r.u.db.fail("update.create"); err != nil {
		return err
	}
	return r.u.with(func(s *memState) error {
		s.updates = append(s.updates, *update)
		return nil
	})
}

func (r memUpdates) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StatusUpdate, error) {
	q := parseSpecs(specs)
	out := make([]*entity.StatusUpdate, 0)
	_ = r.u.with(func(s *memState) error {
		for _, up := range s.updates {
			if q.ideaID == nil || up.IdeaId == *q.ideaID {
				c := up
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(a, b int) bool { return out[a].Sequence < out[b].Sequence })
	return out, nil
}

func (r memUpdates) NextSequence(ctx context.Context, ideaID uuid.UUID) (int, error) {
	highest := 0
	_ = r.u.with(func(s *memState) error {
		for _, up := range s.updates {
			if up.IdeaId == ideaID && up.Sequence > highest {
				highest = up.Sequence
			}
		}
		return nil
	})
	return highest + 1, nil
}

func (r memUpdates) Latest(ctx context.Context, ideaID uuid.UUID) (*entity.StatusUpdate, error) {
	all, _ := r.FindAll(ctx, specification.ByIdeaID{IdeaID: ideaID})
	if len(all) == 0 {
		return nil, nil
	}
	return all[len(all)-1], nil
}

type memComments struct{ u *memUoW }

func (r memComments) Create(ctx context.Context, comment *entity.Comment) error {
	return r.u.with(func(s *memState) error {
		s.comments = append(s.comments, *comment)
		return nil
	})
}

func (r memComments) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Comment, error) {
	q := parseSpecs(specs)
	out := make([]*entity.Comment, 0)
	_ = r.u.with(func(s *memState) error {
		for _, c := range s.comments {
			if q.ideaID != nil && c.IdeaId != *q.ideaID {
				continue
			}
			if q.external && c.IsInternal {
				continue
			}
			cc := c
			out = append(out, &cc)
		}
		return nil
	})
	return out, nil
}

type memOutbox struct{ u *memUoW }

func (r memOutbox) Enqueue(ctx context.Context, event *entity.OutboxEvent) error {
	if err := r.u.db.fail("outbox.enqueue"); err != nil {
		return err
	}
	return r.u.with(func(s *memState) error {
		s.outbox = append(s.outbox, *event)
		return nil
	})
}

func (r memOutbox) ClaimPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	if err := r.u.db.fail("outbox.claim"); err != nil {
		return nil, err
	}
	out := make([]*entity.OutboxEvent, 0)
	_ = r.u.with(func(s *memState) error {
		for _, e := range s.outbox {
			if e.Status == entity.OutboxStatusPending && len(out) < limit {
				c := e
				out = append(out, &c)
			}
		}
		return nil
	})
	return out, nil
}

func (r memOutbox) update(id uuid.UUID, fn func(e *entity.OutboxEvent)) error {
	return r.u.with(func(s *memState) error {
		for i := range s.outbox {
			if s.outbox[i].Id == id {
				fn(&s.outbox[i])
				return nil
			}
		}
		return errors.New("outbox row not found")
	})
}

func (r memOutbox) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(id, func(e *entity.OutboxEvent) {
		e.Status = entity.OutboxStatusPublished
		e.PublishedAt = &at
	})
}

func (r memOutbox) MarkAttemptFailed(ctx context.Context, id uuid.UUID, reason string, giveUp bool) error {
	return r.update(id, func(e *entity.OutboxEvent) {
		e.Attempts++
		e.LastError = reason
		if giveUp {
			e.Status = entity.OutboxStatusFailed
		}
	})
}

type memUsers struct{ u *memUoW }

func (r memUsers) Create(ctx context.Context, user *entity.User) error {
	return r.u.with(func(s *memState) error {
		s.users[user.Id] = *user
		return nil
	})
}

func (r memUsers) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	if err := r.u.db.fail("user.find"); err != nil {
		return nil, err
	}
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r memUsers) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	q := parseSpecs(specs)
	out := make([]*entity.User, 0)
	_ = r.u.with(func(s *memState) error {
		for _, u := range s.users {
			if q.id != nil && u.Id != *q.id {
				continue
			}
			if q.roles != nil {
				found := false
				for _, role := range q.roles {
					if u.Role == role {
						found = true
					}
				}
				if !found {
					continue
				}
			}
			c := u
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(a, b int) bool { return out[a].Id.String() < out[b].Id.String() })
	return out, nil
}

type memRoles struct{ u *memUoW }

func (r memRoles) FindAll(ctx context.Context) ([]*entity.RoleDefinition, error) {
	if err := r.u.db.fail("role.find"); err != nil {
		return nil, err
	}
	out := make([]*entity.RoleDefinition, 0)
	_ = r.u.with(func(s *memState) error {
		for _, role := range s.roles {
			c := role
			out = append(out, &c)
		}
		return nil
	})
	return out, nil
}

func (r memRoles) Upsert(ctx context.Context, role *entity.RoleDefinition) error {
	return r.u.with(func(s *memState) error {
		for i := range s.roles {
			if s.roles[i].Name == role.Name {
				s.roles[i] = *role
				return nil
			}
		}
		s.roles = append(s.roles, *role)
		return nil
	})
}

type memNotifications struct{ u *memUoW }

func (r memNotifications) CreateNotification(ctx context.Context, n *model.Notification) error {
	return r.u.with(func(s *memState) error {
		s.notifications = append(s.notifications, *n)
		return nil
	})
}

func (r memNotifications) GetNotificationsByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	out := make([]model.Notification, 0)
	_ = r.u.with(func(s *memState) error {
		for _, n := range s.notifications {
			if n.UserID == userID {
				out = append(out, n)
			}
		}
		return nil
	})
	return pageOf(out, limit, offset), int64(len(out)), nil
}

func (r memNotifications) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	all, _, _ := r.GetNotificationsByUserID(ctx, userID, 0, 0)
	var count int64
	for _, n := range all {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r memNotifications) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return r.u.with(func(s *memState) error {
		for i := range s.notifications {
			if s.notifications[i].ID == notificationID && s.notifications[i].UserID == userID {
				s.notifications[i].IsRead = true
				return nil
			}
		}
		return contract.ErrNotificationNotFound
	})
}

func (r memNotifications) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return r.u.with(func(s *memState) error {
		for i := range s.notifications {
			if s.notifications[i].UserID == userID {
				s.notifications[i].IsRead = true
			}
		}
		return nil
	})
}

func (r memNotifications) GetNotificationTypeByCode(ctx context.Context, code string) (*model.NotificationType, error) {
	var found *model.NotificationType
	_ = r.u.with(func(s *memState) error {
		if t, ok := s.notifTypes[code]; ok {
			found = &t
		}
		return nil
	})
	if found == nil {
		return nil, errors.New("record not found")
	}
	return found, nil
}

func (r memNotifications) UpsertNotificationType(ctx context.Context, t *model.NotificationType) error {
	return r.u.with(func(s *memState) error {
		s.notifTypes[t.Code] = *t
		return nil
	})
}

func (r memNotifications) GetPreference(ctx context.Context, userID uuid.UUID) (*model.UserNotificationPreference, error) {
	pref := &model.UserNotificationPreference{UserID: userID, EmailEnabled: true}
	_ = r.u.with(func(s *memState) error {
		if p, ok := s.prefs[userID]; ok {
			pref = &p
		}
		return nil
	})
	return pref, nil
}

type harness struct {
	db     *memDB
	roles  IRoleService
	engine *workflow.Engine
	ideas  IIdeaService
}

func newHarness() *harness {
	db := newMemDB()
	policy := workflow.NewRolePolicy()
	roles := NewRoleService(db, FallbackRoleRegistry(nil), policy, memory.NewRoleCache(time.Minute))
	engine := workflow.NewEngine(policy, workflow.NewTransitionTable(), unitofwork.NewWorkflowTransactor(db), roles, logger.NewNopLogger())
	return &harness{
		db:     db,
		roles:  roles,
		engine: engine,
		ideas:  NewIdeaService(db, engine, roles, logger.NewNopLogger()),
	}
}
