package models

import "time"

type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
	RoleSystem Role = "system" // elevated credential for the game-server plugin
)

// User is a platform account linked to a Minecraft game account.
// The reward counters are denormalized and mutated only by the reward
// ledger, always via atomic increments, never read-then-write.
type User struct {
	ID            string  `gorm:"primaryKey;type:uuid" json:"id"`
	MinecraftUUID string  `gorm:"uniqueIndex;not null" json:"minecraft_uuid"`
	Username      string  `gorm:"index;not null" json:"username"`
	Email         string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  *string `json:"-"`
	Role          Role    `gorm:"type:varchar(16);default:'player'" json:"role"`

	TotalXP                  int64 `gorm:"default:0" json:"total_xp"`
	TotalPoints              int64 `gorm:"default:0" json:"total_points"`
	TotalChallengesCompleted int64 `gorm:"default:0" json:"total_challenges_completed"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) IsAdmin() bool  { return u.Role == RoleAdmin }
func (u *User) IsSystem() bool { return u.Role == RoleSystem }
