package memory

import (
	"time"

	"nexus-chat-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// ProfileCache holds display profiles read from the users table. Profiles
// change rarely and are read on every connect and every AI turn.
type ProfileCache struct {
	cache *cache.Cache
}

func NewProfileCache(ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *ProfileCache) Save(profile *entity.Profile) {
	r.cache.Set(profile.Id, profile, cache.DefaultExpiration)
}

func (r *ProfileCache) Get(userID string) (*entity.Profile, bool) {
	if x, found := r.cache.Get(userID); found {
		return x.(*entity.Profile), true
	}
	return nil, false
}

func (r *ProfileCache) Delete(userID string) {
	r.cache.Delete(userID)
}
