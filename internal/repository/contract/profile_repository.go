package contract

import (
	"context"

	"nexus-chat-be/internal/entity"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Profile, error)
	FindByIDs(ctx context.Context, ids []string) ([]*entity.Profile, error)
}
