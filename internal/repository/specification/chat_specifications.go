package specification

import (
	"time"

	"gorm.io/gorm"
)

// ByThread scopes messages to one (workspace, thread) pair.
type ByThread struct {
	WorkspaceID string
	ThreadID    string
}

func (s ByThread) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("(workspace_id = ? AND thread_id = ?)", s.WorkspaceID, s.ThreadID)
}

type ByWorkspace struct {
	WorkspaceID string
}

func (s ByWorkspace) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("workspace_id = ?", s.WorkspaceID)
}

type CreatedSince struct {
	Since time.Time
}

func (s CreatedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at > ?", s.Since)
}

// VisibleTo hides messages the viewer deleted for themselves.
type VisibleTo struct {
	UserID string
}

func (s VisibleTo) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(
		"NOT EXISTS (SELECT 1 FROM message_hidden h WHERE h.message_id = chat_messages.id AND h.user_id = ?)",
		s.UserID,
	)
}

type NotDeletedGlobally struct{}

func (s NotDeletedGlobally) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("deleted_globally = ?", false)
}

type ExcludeID struct {
	ID string
}

func (s ExcludeID) Apply(db *gorm.DB) *gorm.DB {
	if s.ID == "" {
		return db
	}
	return db.Where("id <> ?", s.ID)
}

// Chronological orders by timestamp, then by insertion sequence.
type Chronological struct {
	Desc bool
}

func (s Chronological) Apply(db *gorm.DB) *gorm.DB {
	if s.Desc {
		return db.Order("created_at DESC").Order("seq DESC")
	}
	return db.Order("created_at ASC").Order("seq ASC")
}
