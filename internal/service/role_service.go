package service

import (
	"context"
	"fmt"

	"idealab-be/internal/dto"
	"idealab-be/internal/entity"
	"idealab-be/internal/pkg/logger"
	"idealab-be/internal/repository/memory"
	"idealab-be/internal/repository/specification"
	"idealab-be/internal/repository/unitofwork"
	"idealab-be/pkg/workflow"

	"github.com/google/uuid"
)

const roleModule = "ROLE"

// RoleRegistry is the set of roles the service recognises. It is built once at
// startup and never changes afterwards.
type RoleRegistry struct {
	ordered []entity.RoleDefinition
	known   map[entity.Role]struct{}
	source  string
}

func newRoleRegistry(defs []entity.RoleDefinition, source string) *RoleRegistry {
	r := &RoleRegistry{
		ordered: make([]entity.RoleDefinition, 0, len(defs)),
		known:   make(map[entity.Role]struct{}, len(defs)),
		source:  source,
	}
	for _, d := range defs {
		if _, dup := r.known[d.Name]; dup || d.Name == "" {
			continue
		}
		r.known[d.Name] = struct{}{}
		r.ordered = append(r.ordered, d)
	}
	return r
}

// LoadRoleRegistry reads the roles table and falls back to fallback (or the
// built-in role list when fallback is empty) if the table is empty or unreadable.
func LoadRoleRegistry(ctx context.Context, uowFactory unitofwork.RepositoryFactory, fallback []string, log logger.ILogger) *RoleRegistry {
	uow := uowFactory.NewUnitOfWork(ctx)
	stored, err := uow.RoleRepository().FindAll(ctx)
	if err == nil && len(stored) > 0 {
		defs := make([]entity.RoleDefinition, 0, len(stored))
		for _, d := range stored {
			defs = append(defs, *d)
		}
		log.Info(roleModule, "Role registry loaded from database", map[string]interface{}{"count": len(defs)})
		return newRoleRegistry(defs, "database")
	}

	details := map[string]interface{}{}
	if err != nil {
		details["error"] = err
	}
	log.Warn(roleModule, "Role registry falling back to built-in roles", details)
	return FallbackRoleRegistry(fallback)
}

func FallbackRoleRegistry(names []string) *RoleRegistry {
	roles := entity.DefaultRoles
	if len(names) > 0 {
		roles = make([]entity.Role, 0, len(names))
		for _, n := range names {
			roles = append(roles, entity.Role(n))
		}
	}
	defs := make([]entity.RoleDefinition, 0, len(roles))
	for _, r := range roles {
		defs = append(defs, entity.RoleDefinition{Name: r, DisplayName: string(r)})
	}
	return newRoleRegistry(defs, "fallback")
}

func (r *RoleRegistry) IsKnown(role entity.Role) bool {
	_, ok := r.known[role]
	return ok
}

func (r *RoleRegistry) Definitions() []entity.RoleDefinition {
	out := make([]entity.RoleDefinition, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *RoleRegistry) Source() string {
	return r.source
}

type IRoleService interface {
	workflow.RoleResolver
	List(ctx context.Context) ([]*dto.RoleResponse, error)
	// UsersWithRoles returns ids of users holding any of roles.
	UsersWithRoles(ctx context.Context, roles []entity.Role) ([]uuid.UUID, error)
	IsReviewer(role entity.Role) bool
}

type roleService struct {
	uowFactory unitofwork.RepositoryFactory
	registry   *RoleRegistry
	policy     *workflow.RolePolicy
	cache      *memory.RoleCache
}

func NewRoleService(uowFactory unitofwork.RepositoryFactory, registry *RoleRegistry, policy *workflow.RolePolicy, cache *memory.RoleCache) IRoleService {
	return &roleService{
		uowFactory: uowFactory,
		registry:   registry,
		policy:     policy,
		cache:      cache,
	}
}

// ResolveRole fails closed: missing users, users without a role and roles the
// registry does not know all resolve to ok=false.
func (s *roleService) ResolveRole(ctx context.Context, userID uuid.UUID) (entity.Role, bool, error) {
	role, cached := s.cache.Get(userID)
	if !cached {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userID})
		if err != nil {
			return "", false, fmt.Errorf("failed to load user %s: %w", userID, err)
		}
		if user != nil {
			role = user.Role
		}
		s.cache.Save(userID, role)
	}

	if role == "" || !s.registry.IsKnown(role) {
		return "", false, nil
	}
	return role, true, nil
}

func (s *roleService) List(ctx context.Context) ([]*dto.RoleResponse, error) {
	defs := s.registry.Definitions()
	res := make([]*dto.RoleResponse, 0, len(defs))
	for _, d := range defs {
		stages := s.policy.ManageableStages(d.Name)
		names := make([]string, len(stages))
		for i, st := range stages {
			names[i] = string(st)
		}
		res = append(res, &dto.RoleResponse{
			Name:             string(d.Name),
			DisplayName:      d.DisplayName,
			Description:      d.Description,
			ManageableStages: names,
		})
	}
	return res, nil
}

func (s *roleService) UsersWithRoles(ctx context.Context, roles []entity.Role) ([]uuid.UUID, error) {
	known := make([]entity.Role, 0, len(roles))
	for _, r := range roles {
		if s.registry.IsKnown(r) {
			known = append(known, r)
		}
	}
	if len(known) == 0 {
		return []uuid.UUID{}, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	users, err := uow.UserRepository().FindAll(ctx, specification.InRoles{Roles: known})
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.Id
	}
	return ids, nil
}

// IsReviewer reports whether role may act on at least one stage.
func (s *roleService) IsReviewer(role entity.Role) bool {
	return len(s.policy.ManageableStages(role)) > 0
}
