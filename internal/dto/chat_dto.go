package dto

import "time"

// Inbound socket payloads.

type RoomRequest struct {
	WorkspaceId string `json:"workspace_id" validate:"required"`
	ThreadId    string `json:"thread_id" validate:"required"`
}

type SendMessageRequest struct {
	WorkspaceId string `json:"workspace_id" validate:"required"`
	ThreadId    string `json:"thread_id" validate:"required"`
	Content     string `json:"content" validate:"required,max=8000"`
	ReplyTo     string `json:"reply_to,omitempty"`
	TriggerAI   bool   `json:"trigger_ai,omitempty"`
	DisableAI   bool   `json:"disable_ai,omitempty"`
}

type TypingRequest struct {
	WorkspaceId string `json:"workspace_id" validate:"required"`
	ThreadId    string `json:"thread_id" validate:"required"`
	IsTyping    *bool  `json:"is_typing,omitempty"`
}

type DeleteMessageRequest struct {
	MessageId   string `json:"message_id" validate:"required"`
	DeleteType  string `json:"delete_type" validate:"required,oneof=everyone self"`
	WorkspaceId string `json:"workspace_id"`
	ThreadId    string `json:"thread_id"`
}

type EditMessageRequest struct {
	MessageId   string `json:"message_id" validate:"required"`
	Content     string `json:"content" validate:"required,max=8000"`
	WorkspaceId string `json:"workspace_id"`
	ThreadId    string `json:"thread_id"`
}

// Outbound socket payloads.

type ReplyToDTO struct {
	Id       string `json:"id"`
	SenderId string `json:"sender_id"`
	Sender   string `json:"sender"`
	Content  string `json:"content"`
}

type NewMessageEvent struct {
	MessageId         string      `json:"message_id"`
	WorkspaceId       string      `json:"workspace_id"`
	ThreadId          string      `json:"thread_id"`
	Role              string      `json:"role"`
	Content           string      `json:"content"`
	SenderId          string      `json:"sender_id"`
	SenderDisplayName string      `json:"sender_display_name"`
	SenderImage       *string     `json:"sender_image"`
	ReplyTo           *ReplyToDTO `json:"reply_to,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
}

type TypingEvent struct {
	WorkspaceId       string `json:"workspace_id"`
	ThreadId          string `json:"thread_id"`
	SenderId          string `json:"sender_id"`
	SenderDisplayName string `json:"sender_display_name"`
	IsTyping          bool   `json:"is_typing"`
}

type MessageDeletedEvent struct {
	Id          string `json:"id"`
	Type        string `json:"type"`
	WorkspaceId string `json:"workspace_id"`
	ThreadId    string `json:"thread_id"`
}

type MessageUpdatedEvent struct {
	Id          string `json:"id"`
	Content     string `json:"content"`
	IsEdited    bool   `json:"is_edited"`
	WorkspaceId string `json:"workspace_id"`
	ThreadId    string `json:"thread_id"`
}

type RoomJoinedEvent struct {
	WorkspaceId string `json:"workspace_id"`
	ThreadId    string `json:"thread_id"`
	Room        string `json:"room"`
}

type ErrorEvent struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
	Event  string `json:"event,omitempty"`
}

// HTTP history reads.

type HistoryRequest struct {
	WorkspaceId string `query:"workspace_id" validate:"required"`
	ThreadId    string `query:"thread_id" validate:"required"`
}

type HistoryItemResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageResponse struct {
	Id                string      `json:"id"`
	WorkspaceId       string      `json:"workspace_id"`
	ThreadId          string      `json:"thread_id"`
	Role              string      `json:"role"`
	Content           string      `json:"content"`
	SenderId          string      `json:"sender_id"`
	SenderDisplayName string      `json:"sender_display_name"`
	SenderImage       *string     `json:"sender_image"`
	ReplyTo           *ReplyToDTO `json:"reply_to,omitempty"`
	IsEdited          bool        `json:"is_edited"`
	IsDeleted         bool        `json:"is_deleted"`
	CreatedAt         time.Time   `json:"created_at"`
}
