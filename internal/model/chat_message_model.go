package model

import (
	"time"

	"gorm.io/datatypes"
)

// ChatMessage rows are ordered by (created_at, seq). Seq is the insertion
// sequence and breaks ties between messages stored in the same instant.
type ChatMessage struct {
	Seq               int64          `gorm:"column:seq;primaryKey;autoIncrement"`
	Id                string         `gorm:"type:varchar(64);uniqueIndex;not null"`
	WorkspaceId       string         `gorm:"type:varchar(128);not null;index:idx_chat_messages_scope,priority:1"`
	ThreadId          string         `gorm:"type:varchar(128);not null;index:idx_chat_messages_scope,priority:2"`
	SenderId          string         `gorm:"type:varchar(64);not null;index"`
	SenderDisplayName string         `gorm:"type:varchar(255)"`
	Role              string         `gorm:"type:varchar(20);not null"`
	Content           string         `gorm:"type:text;not null"`
	ReplyToId         *string        `gorm:"type:varchar(64)"`
	ReplyToSenderId   *string        `gorm:"type:varchar(64)"`
	ReplyToSender     *string        `gorm:"type:varchar(255)"`
	ReplyToContent    *string        `gorm:"type:text"`
	Metadata          datatypes.JSON `gorm:"not null"`
	IsEdited          bool           `gorm:"not null;default:false"`
	DeletedGlobally   bool           `gorm:"not null;default:false"`
	CreatedAt         time.Time      `gorm:"not null;index:idx_chat_messages_scope,priority:3"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// MessageHidden is the deleted_for set: one row per (message, viewer).
type MessageHidden struct {
	MessageId string    `gorm:"type:varchar(64);primaryKey"`
	UserId    string    `gorm:"type:varchar(64);primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (MessageHidden) TableName() string {
	return "message_hidden"
}
