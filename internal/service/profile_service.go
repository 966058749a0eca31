package service

import (
	"context"

	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/repository/memory"
	"nexus-chat-be/internal/repository/unitofwork"
)

type IProfileDirectory interface {
	Get(ctx context.Context, userID string) *entity.Profile
	Profiles(ctx context.Context, ids []string) map[string]*entity.Profile
}

// profileDirectory reads display profiles through a TTL cache. A user with
// no row gets a bare profile so callers never deal with nil.
type profileDirectory struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.ProfileCache
	logger     logger.ILogger
}

func NewProfileDirectory(uowFactory unitofwork.RepositoryFactory, cache *memory.ProfileCache, logger logger.ILogger) IProfileDirectory {
	return &profileDirectory{
		uowFactory: uowFactory,
		cache:      cache,
		logger:     logger,
	}
}

func (d *profileDirectory) Get(ctx context.Context, userID string) *entity.Profile {
	return d.Profiles(ctx, []string{userID})[userID]
}

func (d *profileDirectory) Profiles(ctx context.Context, ids []string) map[string]*entity.Profile {
	out := make(map[string]*entity.Profile, len(ids))
	var missing []string
	for _, id := range ids {
		if _, done := out[id]; done {
			continue
		}
		if p, ok := d.cache.Get(id); ok {
			out[id] = p
			continue
		}
		out[id] = nil
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		uow := d.uowFactory.NewUnitOfWork(ctx)
		found, err := uow.ProfileRepository().FindByIDs(ctx, missing)
		if err != nil {
			d.logger.Warn("PROFILE", "Failed to load profiles", map[string]interface{}{"error": err.Error(), "count": len(missing)})
		}
		for _, p := range found {
			d.cache.Save(p)
			out[p.Id] = p
		}
	}

	for id, p := range out {
		if p == nil {
			out[id] = &entity.Profile{Id: id}
		}
	}
	return out
}
