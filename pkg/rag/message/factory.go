package message

import (
	"strings"
	"time"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/entity"

	"github.com/google/uuid"
)

// Factory builds chat messages with ids and timestamps assigned
type Factory struct {
	now func() time.Time
}

func NewFactory() *Factory {
	return &Factory{now: func() time.Time { return time.Now().UTC() }}
}

// NewFactoryWithClock is used by tests that need equal timestamps.
func NewFactoryWithClock(now func() time.Time) *Factory {
	return &Factory{now: now}
}

func (f *Factory) CreateUserMessage(workspaceID, threadID, senderID, senderName, content string, replyTo *entity.ReplySnapshot) *entity.Message {
	return &entity.Message{
		Id:                uuid.NewString(),
		WorkspaceId:       workspaceID,
		ThreadId:          threadID,
		SenderId:          senderID,
		SenderDisplayName: senderName,
		Role:              constant.ChatMessageRoleUser,
		Content:           strings.TrimSpace(content),
		ReplyTo:           replyTo,
		Metadata:          map[string]interface{}{},
		CreatedAt:         f.now(),
	}
}

// CreateAssistantMessage records how the reply was triggered and which
// vector records grounded it.
func (f *Factory) CreateAssistantMessage(workspaceID, threadID, content, mode string, sourceIDs []string) *entity.Message {
	metadata := map[string]interface{}{"mode": mode}
	if len(sourceIDs) > 0 {
		metadata["sources"] = sourceIDs
	}
	return &entity.Message{
		Id:                uuid.NewString(),
		WorkspaceId:       workspaceID,
		ThreadId:          threadID,
		SenderId:          constant.AssistantSenderID,
		SenderDisplayName: constant.AssistantSenderName,
		Role:              constant.ChatMessageRoleAssistant,
		Content:           content,
		Metadata:          metadata,
		CreatedAt:         f.now(),
	}
}
