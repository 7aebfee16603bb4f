package models

import "time"

type MembershipStatus string

const (
	MembershipAccepted  MembershipStatus = "accepted"
	MembershipCompleted MembershipStatus = "completed"
)

// ChallengeMembership records that a player joined a challenge. The
// accepted→completed transition happens exactly once and is the sole
// trigger for reward granting.
type ChallengeMembership struct {
	ID          string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string           `gorm:"uniqueIndex:idx_membership_user_challenge;not null" json:"user_id"`
	ChallengeID string           `gorm:"uniqueIndex:idx_membership_user_challenge;not null" json:"challenge_id"`
	Status      MembershipStatus `gorm:"type:varchar(16);default:'accepted'" json:"status"`
	JoinedAt    time.Time        `json:"joined_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`

	Challenge *Challenge `json:"challenge,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TaskProgress is the per-player counter toward a task's target.
// Invariant: Completed == (Progress >= Task.Quantity), maintained in the
// same UPDATE that bumps the counter, never recomputed lazily on read.
// Rows are created when the player joins the owning challenge; the
// increment path also auto-creates a zero row if the bookkeeping is
// inconsistent (deliberate leniency toward the plugin).
type TaskProgress struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string `gorm:"uniqueIndex:idx_progress_user_task;not null" json:"user_id"`
	TaskID    string `gorm:"uniqueIndex:idx_progress_user_task;not null" json:"task_id"`
	Progress  int64  `gorm:"default:0" json:"progress"`
	Completed bool   `gorm:"default:false" json:"completed"`

	Task *Task `json:"task,omitempty"`
	User *User `json:"user,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
