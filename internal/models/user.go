package models

import "time"

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

type User struct {
	UserID    string `gorm:"column:user_id;primaryKey;size:36"`
	Username  string `gorm:"not null"`
	Email     string `gorm:"uniqueIndex;size:255;not null"`
	AvatarURL string
	Status    string `gorm:"size:16;default:'offline'"`
	CreatedAt time.Time
}

func (User) TableName() string { return "users" }

// Identity хранит учётные данные, users.user_id совпадает с Identity.ID
type Identity struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	LastSignInAt *time.Time
}

func (Identity) TableName() string { return "auth_identities" }
