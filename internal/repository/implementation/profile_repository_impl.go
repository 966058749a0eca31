package implementation

import (
	"context"
	"errors"

	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/mapper"
	"nexus-chat-be/internal/model"
	"nexus-chat-be/internal/repository/contract"

	"gorm.io/gorm"
)

type ProfileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.WorkspaceMapper
}

func NewProfileRepository(db *gorm.DB) contract.ProfileRepository {
	return &ProfileRepositoryImpl{
		db:     db,
		mapper: mapper.NewWorkspaceMapper(),
	}
}

func (r *ProfileRepositoryImpl) FindByID(ctx context.Context, id string) (*entity.Profile, error) {
	var m model.UserProfile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ProfileToEntity(&m), nil
}

func (r *ProfileRepositoryImpl) FindByIDs(ctx context.Context, ids []string) ([]*entity.Profile, error) {
	if len(ids) == 0 {
		return []*entity.Profile{}, nil
	}
	var models []*model.UserProfile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	profiles := make([]*entity.Profile, len(models))
	for i, m := range models {
		profiles[i] = r.mapper.ProfileToEntity(m)
	}
	return profiles, nil
}
