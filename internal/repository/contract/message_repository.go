package contract

import (
	"context"

	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/repository/specification"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// UpdateContentBySender and TombstoneBySender are single conditional
	// updates keyed by id and sender. They report the number of rows changed;
	// zero means the message is missing, already deleted, or not the sender's.
	UpdateContentBySender(ctx context.Context, id, senderID, content string) (int64, error)
	TombstoneBySender(ctx context.Context, id, senderID, tombstone string) (int64, error)

	HideForUser(ctx context.Context, id, userID string) error
	DeleteByThread(ctx context.Context, workspaceID, threadID string) error
	DeleteByWorkspace(ctx context.Context, workspaceID string) error
}
