package memory

import (
	"time"

	"idealab-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// RoleCache remembers user role lookups. A cached empty role means the user was
// found without a role, which is as authoritative as a real one.
type RoleCache struct {
	cache *cache.Cache
}

func NewRoleCache(ttl time.Duration) *RoleCache {
	return &RoleCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *RoleCache) Save(userID uuid.UUID, role entity.Role) {
	r.cache.Set(userID.String(), role, cache.DefaultExpiration)
}

func (r *RoleCache) Get(userID uuid.UUID) (entity.Role, bool) {
	if x, found := r.cache.Get(userID.String()); found {
		return x.(entity.Role), true
	}
	return "", false
}

func (r *RoleCache) Delete(userID uuid.UUID) {
	r.cache.Delete(userID.String())
}

func (r *RoleCache) Flush() {
	r.cache.Flush()
}
