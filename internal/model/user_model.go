package model

import "time"

// UserProfile reads the users table owned by the identity service. This
// module never writes it outside of migrations and tests.
type UserProfile struct {
	Id           string    `gorm:"type:varchar(64);primaryKey"`
	Email        string    `gorm:"type:varchar(255);index"`
	FullName     string    `gorm:"type:varchar(255)"`
	Username     string    `gorm:"type:varchar(100)"`
	ProfileImage *string   `gorm:"type:text"`
	IsPrivate    bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserProfile) TableName() string {
	return "users"
}
