package implementation

import (
	"context"
	"errors"

	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/mapper"
	"nexus-chat-be/internal/model"
	"nexus-chat-be/internal/repository/contract"
	"nexus-chat-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MessageMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewMessageMapper(),
	}
}

func (r *MessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	m := r.mapper.ToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.ToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	var m model.ChatMessage
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatMessage{}), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *MessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var models []*model.ChatMessage
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatMessage{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Message, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *MessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatMessage{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageRepositoryImpl) UpdateContentBySender(ctx context.Context, id, senderID, content string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("id = ? AND sender_id = ? AND deleted_globally = ?", id, senderID, false).
		Updates(map[string]interface{}{
			"content":   content,
			"is_edited": true,
		})
	return res.RowsAffected, res.Error
}

func (r *MessageRepositoryImpl) TombstoneBySender(ctx context.Context, id, senderID, tombstone string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("id = ? AND sender_id = ? AND deleted_globally = ?", id, senderID, false).
		Updates(map[string]interface{}{
			"content":            tombstone,
			"deleted_globally":   true,
			"reply_to_id":        nil,
			"reply_to_sender_id": nil,
			"reply_to_sender":    nil,
			"reply_to_content":   nil,
		})
	return res.RowsAffected, res.Error
}

func (r *MessageRepositoryImpl) HideForUser(ctx context.Context, id, userID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.MessageHidden{MessageId: id, UserId: userID}).Error
}

func (r *MessageRepositoryImpl) DeleteByThread(ctx context.Context, workspaceID, threadID string) error {
	scope := r.db.Model(&model.ChatMessage{}).Select("id").Where("workspace_id = ? AND thread_id = ?", workspaceID, threadID)
	if err := r.db.WithContext(ctx).Where("message_id IN (?)", scope).Delete(&model.MessageHidden{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("workspace_id = ? AND thread_id = ?", workspaceID, threadID).
		Delete(&model.ChatMessage{}).Error
}

func (r *MessageRepositoryImpl) DeleteByWorkspace(ctx context.Context, workspaceID string) error {
	scope := r.db.Model(&model.ChatMessage{}).Select("id").Where("workspace_id = ?", workspaceID)
	if err := r.db.WithContext(ctx).Where("message_id IN (?)", scope).Delete(&model.MessageHidden{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Delete(&model.ChatMessage{}).Error
}
