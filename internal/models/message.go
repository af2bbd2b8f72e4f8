package models

import "time"

type Message struct {
	MessageID string `gorm:"column:message_id;primaryKey;size:36"`
	Content   string `gorm:"not null"`
	UserID    string `gorm:"size:36;not null;index"`
	ChannelID string `gorm:"size:36;not null;index"`
	CreatedAt time.Time

	// Связи
	User    User    `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE"`
	Channel Channel `gorm:"foreignKey:ChannelID;references:ChannelID;constraint:OnDelete:CASCADE"`
}

func (Message) TableName() string { return "messages" }
