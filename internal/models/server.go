package models

import "time"

type Server struct {
	ServerID  string `gorm:"column:server_id;primaryKey;size:36"`
	Name      string `gorm:"not null"`
	OwnerID   string `gorm:"size:36;not null;index"`
	CreatedAt time.Time

	// Связи
	Owner User `gorm:"foreignKey:OwnerID;references:UserID;constraint:OnDelete:CASCADE"`
}

func (Server) TableName() string { return "servers" }

const (
	ChannelText  = "text"
	ChannelVoice = "voice"
)

type Channel struct {
	ChannelID   string `gorm:"column:channel_id;primaryKey;size:36"`
	Name        string `gorm:"not null"`
	ChannelType string `gorm:"size:8;not null;default:'text';check:channel_type IN ('text','voice')"`
	ServerID    string `gorm:"size:36;not null;index"`
	CreatedAt   time.Time

	// Связи
	Server Server `gorm:"foreignKey:ServerID;references:ServerID;constraint:OnDelete:CASCADE"`
}

func (Channel) TableName() string { return "channels" }
