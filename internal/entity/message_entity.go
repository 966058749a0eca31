package entity

import "time"

// ReplySnapshot freezes the replied-to message at the time of the reply.
type ReplySnapshot struct {
	MessageId string
	SenderId  string
	Sender    string
	Content   string
}

type Message struct {
	Id                string
	Seq               int64
	WorkspaceId       string
	ThreadId          string
	SenderId          string
	SenderDisplayName string
	Role              string
	Content           string
	ReplyTo           *ReplySnapshot
	Metadata          map[string]interface{}
	IsEdited          bool
	DeletedGlobally   bool
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

// RoomID is the realtime room a message belongs to.
func (m *Message) RoomID() string {
	return RoomID(m.WorkspaceId, m.ThreadId)
}

func RoomID(workspaceID, threadID string) string {
	return workspaceID + ":" + threadID
}
