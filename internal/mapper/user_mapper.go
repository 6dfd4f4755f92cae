package mapper

import (
	"idealab-be/internal/entity"
	"idealab-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		Id:        u.Id,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      entity.Role(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		Id:        u.Id,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (m *UserMapper) ToEntities(users []*model.User) []*entity.User {
	entities := make([]*entity.User, len(users))
	for i, u := range users {
		entities[i] = m.ToEntity(u)
	}
	return entities
}

func (m *UserMapper) RoleToEntity(r *model.Role) *entity.RoleDefinition {
	if r == nil {
		return nil
	}
	return &entity.RoleDefinition{
		Name:        entity.Role(r.Name),
		DisplayName: r.DisplayName,
		Description: r.Description,
	}
}

func (m *UserMapper) RoleToModel(r *entity.RoleDefinition) *model.Role {
	if r == nil {
		return nil
	}
	return &model.Role{
		Name:        string(r.Name),
		DisplayName: r.DisplayName,
		Description: r.Description,
	}
}

func (m *UserMapper) RolesToEntities(roles []*model.Role) []*entity.RoleDefinition {
	entities := make([]*entity.RoleDefinition, len(roles))
	for i, r := range roles {
		entities[i] = m.RoleToEntity(r)
	}
	return entities
}
