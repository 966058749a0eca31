package entity

import "time"

type Workspace struct {
	Id         string
	OwnerId    string
	Name       string
	IsPersonal bool
	Members    []string
	Threads    []*Thread
	CreatedAt  time.Time
}

type Thread struct {
	Id          string
	WorkspaceId string
	Title       string
	CreatedAt   time.Time
}

// HasAccess reports whether userID owns the workspace or is one of its members.
func (w *Workspace) HasAccess(userID string) bool {
	if w.OwnerId == userID {
		return true
	}
	if w.IsPersonal {
		return false
	}
	for _, m := range w.Members {
		if m == userID {
			return true
		}
	}
	return false
}
