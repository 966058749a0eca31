package mapper

import (
	"encoding/json"

	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/model"

	"gorm.io/datatypes"
)

type MessageMapper struct{}

func NewMessageMapper() *MessageMapper {
	return &MessageMapper{}
}

func (m *MessageMapper) ToEntity(c *model.ChatMessage) *entity.Message {
	if c == nil {
		return nil
	}

	var reply *entity.ReplySnapshot
	if c.ReplyToId != nil {
		reply = &entity.ReplySnapshot{
			MessageId: *c.ReplyToId,
			SenderId:  deref(c.ReplyToSenderId),
			Sender:    deref(c.ReplyToSender),
			Content:   deref(c.ReplyToContent),
		}
	}

	metadata := map[string]interface{}{}
	if len(c.Metadata) > 0 {
		_ = json.Unmarshal(c.Metadata, &metadata)
	}

	e := &entity.Message{
		Id:                c.Id,
		Seq:               c.Seq,
		WorkspaceId:       c.WorkspaceId,
		ThreadId:          c.ThreadId,
		SenderId:          c.SenderId,
		SenderDisplayName: c.SenderDisplayName,
		Role:              c.Role,
		Content:           c.Content,
		ReplyTo:           reply,
		Metadata:          metadata,
		IsEdited:          c.IsEdited,
		DeletedGlobally:   c.DeletedGlobally,
		CreatedAt:         c.CreatedAt,
	}
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		e.UpdatedAt = &t
	}
	return e
}

func (m *MessageMapper) ToModel(e *entity.Message) *model.ChatMessage {
	if e == nil {
		return nil
	}

	metadata := datatypes.JSON("{}")
	if len(e.Metadata) > 0 {
		if raw, err := json.Marshal(e.Metadata); err == nil {
			metadata = datatypes.JSON(raw)
		}
	}

	c := &model.ChatMessage{
		Seq:               e.Seq,
		Id:                e.Id,
		WorkspaceId:       e.WorkspaceId,
		ThreadId:          e.ThreadId,
		SenderId:          e.SenderId,
		SenderDisplayName: e.SenderDisplayName,
		Role:              e.Role,
		Content:           e.Content,
		Metadata:          metadata,
		IsEdited:          e.IsEdited,
		DeletedGlobally:   e.DeletedGlobally,
		CreatedAt:         e.CreatedAt,
	}
	if e.ReplyTo != nil {
		c.ReplyToId = ptr(e.ReplyTo.MessageId)
		c.ReplyToSenderId = ptr(e.ReplyTo.SenderId)
		c.ReplyToSender = ptr(e.ReplyTo.Sender)
		c.ReplyToContent = ptr(e.ReplyTo.Content)
	}
	return c
}

func ptr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
