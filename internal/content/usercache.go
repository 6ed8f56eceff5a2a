package content

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rx3lixir/golos/internal/db"
)

// UserCache keeps recently seen active users in memory.
// Entries are copies, callers may not mutate what the cache holds.
type UserCache struct {
	cache *expirable.LRU[uuid.UUID, db.User]
}

func NewUserCache(size int, ttl time.Duration) *UserCache {
	return &UserCache{
		cache: expirable.NewLRU[uuid.UUID, db.User](size, nil, ttl),
	}
}

func (c *UserCache) Get(id uuid.UUID) (*db.User, bool) {
	u, ok := c.cache.Get(id)
	if !ok {
		userCacheMissesTotal.Inc()
		return nil, false
	}
	userCacheHitsTotal.Inc()
	return &u, true
}

func (c *UserCache) Set(u *db.User) {
	c.cache.Add(u.ID, *u)
}

// Invalidate drops a user after a profile change or deactivation
func (c *UserCache) Invalidate(id uuid.UUID) {
	c.cache.Remove(id)
}
