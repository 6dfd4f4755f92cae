package entity

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleEmployee         Role = "employee"
	RoleProductExpert    Role = "product_expert"
	RoleTechExpert       Role = "tech_expert"
	RoleLeader           Role = "leader"
	RoleSuperAdmin       Role = "super_admin"
	RoleIdealabsCoreTeam Role = "idealabs_core_team"
	RoleIdeaMentor       Role = "idea_mentor"
)

// DefaultRoles is the fallback role set used when the roles store is empty or unreachable.
var DefaultRoles = []Role{
	RoleEmployee,
	RoleProductExpert,
	RoleTechExpert,
	RoleLeader,
	RoleSuperAdmin,
	RoleIdealabsCoreTeam,
	RoleIdeaMentor,
}

type User struct {
	Id        uuid.UUID
	Email     string
	FullName  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

type RoleDefinition struct {
	Name        Role
	DisplayName string
	Description string
}
