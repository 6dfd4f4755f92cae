package memory

import (
	"testing"
	"time"

	"idealab-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRoleCache(t *testing.T) {
	c := NewRoleCache(time.Minute)
	id := uuid.New()

	_, ok := c.Get(id)
	assert.False(t, ok)

	c.Save(id, entity.RoleLeader)
	role, ok := c.Get(id)
	assert.True(t, ok)
	assert.Equal(t, entity.RoleLeader, role)

	c.Delete(id)
	_, ok = c.Get(id)
	assert.False(t, ok)
}

func TestRoleCacheRemembersMissingRole(t *testing.T) {
	c := NewRoleCache(time.Minute)
	id := uuid.New()

	c.Save(id, "")
	role, ok := c.Get(id)
	assert.True(t, ok)
	assert.Empty(t, role)
}

func TestRoleCacheExpires(t *testing.T) {
	c := NewRoleCache(20 * time.Millisecond)
	id := uuid.New()

	c.Save(id, entity.RoleTechExpert)
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get(id)
	assert.False(t, ok)
}
