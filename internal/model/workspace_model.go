package model

import "time"

type Workspace struct {
	Id         string    `gorm:"type:varchar(128);primaryKey"`
	OwnerId    string    `gorm:"type:varchar(64);not null;index"`
	Name       string    `gorm:"type:varchar(255);not null"`
	IsPersonal bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Workspace) TableName() string {
	return "workspaces"
}

// WorkspaceMember has set semantics through its composite key.
type WorkspaceMember struct {
	WorkspaceId string    `gorm:"type:varchar(128);primaryKey"`
	UserId      string    `gorm:"type:varchar(64);primaryKey;index"`
	JoinedAt    time.Time `gorm:"autoCreateTime"`
}

func (WorkspaceMember) TableName() string {
	return "workspace_members"
}

type Thread struct {
	Seq         int64     `gorm:"column:seq;primaryKey;autoIncrement"`
	Id          string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_threads_workspace_thread,priority:2"`
	WorkspaceId string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_threads_workspace_thread,priority:1"`
	Title       string    `gorm:"type:varchar(255);not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Thread) TableName() string {
	return "threads"
}
