package models

import "time"

type NotificationType string

const (
	NotificationNewChallenge NotificationType = "new_challenge"
	NotificationAccepted     NotificationType = "accepted"
	NotificationCompleted    NotificationType = "completed"
	NotificationReward       NotificationType = "reward"
	NotificationBadge        NotificationType = "badge"
)

// Notification is a fire-and-forget message for a player. Content is
// write-once; only the read flag mutates.
type Notification struct {
	ID      string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID  string           `gorm:"index;not null" json:"user_id"`
	Type    NotificationType `gorm:"type:varchar(24);not null" json:"type"`
	Message string           `gorm:"not null" json:"message"`
	Read    bool             `gorm:"default:false" json:"read"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
