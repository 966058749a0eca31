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

type ThreadRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.WorkspaceMapper
}

func NewThreadRepository(db *gorm.DB) contract.ThreadRepository {
	return &ThreadRepositoryImpl{
		db:     db,
		mapper: mapper.NewWorkspaceMapper(),
	}
}

func (r *ThreadRepositoryImpl) Create(ctx context.Context, thread *entity.Thread) error {
	m := r.mapper.ThreadToModel(thread)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	thread.CreatedAt = m.CreatedAt
	return nil
}

func (r *ThreadRepositoryImpl) FindOne(ctx context.Context, workspaceID, threadID string) (*entity.Thread, error) {
	var m model.Thread
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND id = ?", workspaceID, threadID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ThreadToEntity(&m), nil
}

func (r *ThreadRepositoryImpl) FindByWorkspace(ctx context.Context, workspaceID string) ([]*entity.Thread, error) {
	var models []*model.Thread
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("seq ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	threads := make([]*entity.Thread, len(models))
	for i, m := range models {
		threads[i] = r.mapper.ThreadToEntity(m)
	}
	return threads, nil
}

func (r *ThreadRepositoryImpl) Delete(ctx context.Context, workspaceID, threadID string) error {
	return r.db.WithContext(ctx).
		Where("workspace_id = ? AND id = ?", workspaceID, threadID).
		Delete(&model.Thread{}).Error
}

func (r *ThreadRepositoryImpl) DeleteByWorkspace(ctx context.Context, workspaceID string) error {
	return r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).Delete(&model.Thread{}).Error
}
