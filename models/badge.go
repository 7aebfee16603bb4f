package models

import "time"

// Badge is a catalog entry awarded when a player's cumulative counters
// reach the criteria thresholds (e.g. {"total_xp": 1000}).
type Badge struct {
	ID          string           `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string           `gorm:"uniqueIndex;not null" json:"name"`
	Description string           `json:"description"`
	IconURL     string           `gorm:"type:text" json:"icon_url,omitempty"`
	Criteria    map[string]int64 `gorm:"serializer:json" json:"criteria,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UserBadge is the unique (player, badge) award relation. Award and
// revoke are idempotent set-membership operations.
type UserBadge struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"uniqueIndex:idx_user_badge;not null" json:"user_id"`
	BadgeID   string    `gorm:"uniqueIndex:idx_user_badge;not null" json:"badge_id"`
	AwardedAt time.Time `gorm:"autoCreateTime" json:"awarded_at"`

	Badge *Badge `json:"badge,omitempty"`
}
