package models

import "time"

type ChallengeType string

const (
	ChallengePeriodic  ChallengeType = "periodic"
	ChallengePerPlayer ChallengeType = "per_player"
	ChallengeSpecial   ChallengeType = "special"
)

// Challenge is an objective players can join, composed of tasks. Reward
// amounts are granted exactly once, when every task is completed.
type Challenge struct {
	ID          string        `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string        `gorm:"not null" json:"title"`
	Slug        string        `gorm:"uniqueIndex;not null" json:"slug"`
	Description string        `json:"description"`
	Type        ChallengeType `gorm:"type:varchar(16);not null" json:"type"`

	// Active window. A nil ExpiresAt means the challenge never expires.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	PublishAt *time.Time `json:"publish_at,omitempty"`
	Published bool       `json:"published"`

	RewardXP     int64          `gorm:"default:0" json:"reward_xp"`
	RewardPoints int64          `gorm:"default:0" json:"reward_points"`
	RewardItem   map[string]any `gorm:"serializer:json" json:"reward_item,omitempty"`

	CreatorID string `gorm:"index;not null" json:"creator_id"`

	Tasks []Task `gorm:"constraint:OnDelete:CASCADE" json:"tasks,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsExpired reports whether the challenge's expiry has passed.
func (c *Challenge) IsExpired() bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(time.Now())
}

// IsActive: published and not expired.
func (c *Challenge) IsActive() bool {
	return c.Published && !c.IsExpired()
}

// Task is one measurable sub-goal of a challenge: perform an action
// Quantity times, optionally restricted by a parameter filter.
type Task struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	ChallengeID string         `gorm:"index;not null" json:"challenge_id"`
	ActionID    string         `gorm:"index;not null" json:"action_id"`
	Quantity    int64          `gorm:"default:1" json:"quantity"`
	Parameters  map[string]any `gorm:"serializer:json" json:"parameters,omitempty"`

	Action *Action `json:"action,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Action is a catalog entry naming an in-game event type the plugin can
// report (e.g. MINE_BLOCK). Read-mostly reference data.
type Action struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string         `gorm:"uniqueIndex;not null" json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `gorm:"serializer:json" json:"parameters,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
