package workflow

import "idealab-be/internal/entity"

// RolePolicy decides which roles may act on ideas in a given stage.
// It is immutable after construction and safe for concurrent use.
type RolePolicy struct {
	permitted map[entity.Stage]map[entity.Role]struct{}
}

// NewRolePolicy returns the fixed stage permission table. super_admin holds every
// non-terminal stage; rejected is held by nobody.
func NewRolePolicy() *RolePolicy {
	table := map[entity.Stage][]entity.Role{
		entity.StageDiscovery:       {entity.RoleProductExpert, entity.RoleSuperAdmin},
		entity.StageBasicValidation: {entity.RoleProductExpert, entity.RoleSuperAdmin},
		entity.StageTechValidation:  {entity.RoleTechExpert, entity.RoleSuperAdmin},
		entity.StageLeadershipPitch: {entity.RoleLeader, entity.RoleSuperAdmin},
		entity.StageMVP:             {entity.RoleLeader, entity.RoleSuperAdmin},
		entity.StageRejected:        {},
	}

	permitted := make(map[entity.Stage]map[entity.Role]struct{}, len(table))
	for stage, roles := range table {
		set := make(map[entity.Role]struct{}, len(roles))
		for _, r := range roles {
			set[r] = struct{}{}
		}
		permitted[stage] = set
	}
	return &RolePolicy{permitted: permitted}
}

// CanManage fails closed: unknown roles or stages are never permitted.
func (p *RolePolicy) CanManage(role entity.Role, stage entity.Stage) bool {
	roles, ok := p.permitted[stage]
	if !ok {
		return false
	}
	_, ok = roles[role]
	return ok
}

// ManageableStages returns the stages role may act on, in pipeline order.
func (p *RolePolicy) ManageableStages(role entity.Role) []entity.Stage {
	stages := make([]entity.Stage, 0)
	for _, s := range entity.Stages {
		if p.CanManage(role, s) {
			stages = append(stages, s)
		}
	}
	return stages
}

// RolesFor returns the roles permitted at stage, in canonical role order.
func (p *RolePolicy) RolesFor(stage entity.Stage) []entity.Role {
	roles := make([]entity.Role, 0)
	for _, r := range entity.DefaultRoles {
		if p.CanManage(r, stage) {
			roles = append(roles, r)
		}
	}
	return roles
}
