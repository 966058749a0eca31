package specification

import "gorm.io/gorm"

// AccessibleBy matches workspaces owned by the user or joined by the user.
type AccessibleBy struct {
	UserID string
}

func (s AccessibleBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(
		"(owner_id = ? OR id IN (SELECT workspace_id FROM workspace_members WHERE user_id = ?))",
		s.UserID, s.UserID,
	)
}

type Personal struct {
	IsPersonal bool
}

func (s Personal) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_personal = ?", s.IsPersonal)
}
