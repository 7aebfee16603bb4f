package services

import (
	"errors"
	"time"

	"mc-challenge-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ChallengeService manages the challenge catalog and membership
// (join/leave). Join is the only place progress rows are created in
// normal operation, one zero row per task, atomically with the
// membership row.
type ChallengeService struct {
	DB     *gorm.DB
	Notify *NotificationService
}

func NewChallengeService(db *gorm.DB, notify *NotificationService) *ChallengeService {
	return &ChallengeService{DB: db, Notify: notify}
}

// ChallengeInput carries the admin-facing create/update payload.
type ChallengeInput struct {
	Title        string               `json:"title" validate:"required,min=3,max=100"`
	Description  string               `json:"description"`
	Type         models.ChallengeType `json:"type" validate:"required,oneof=periodic per_player special"`
	ExpiresAt    *time.Time           `json:"expires_at"`
	PublishAt    *time.Time           `json:"publish_at"`
	RewardXP     int64                `json:"reward_xp" validate:"min=0"`
	RewardPoints int64                `json:"reward_points" validate:"min=0"`
	RewardItem   map[string]any       `json:"reward_item"`
}

func (s *ChallengeService) FindAll() ([]models.Challenge, error) {
	var out []models.Challenge
	err := s.DB.Order("created_at DESC").Find(&out).Error
	return out, err
}

// FindActive returns published challenges whose expiry is unset or in
// the future.
func (s *ChallengeService) FindActive() ([]models.Challenge, error) {
	var out []models.Challenge
	err := s.DB.
		Where("published = ?", true).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// FindAllWithTasks returns challenges with their tasks and actions,
// optionally filtered by type.
func (s *ChallengeService) FindAllWithTasks(challengeType string) ([]models.Challenge, error) {
	q := s.DB.Preload("Tasks").Preload("Tasks.Action")
	if challengeType != "" {
		q = q.Where("type = ?", challengeType)
	}
	var out []models.Challenge
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *ChallengeService) FindByID(id string) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := s.DB.Preload("Tasks").Preload("Tasks.Action").First(&challenge, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrChallengeNotFound
		}
		return nil, err
	}
	return &challenge, nil
}

// Create stores a new challenge. Without a future PublishAt it is
// published immediately and every player gets a new_challenge
// notification; otherwise the scheduler publishes it later.
func (s *ChallengeService) Create(creatorID string, in ChallengeInput) (*models.Challenge, error) {
	publishNow := in.PublishAt == nil || !in.PublishAt.After(time.Now())
	challenge := models.Challenge{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Slug:         slug.Make(in.Title),
		Description:  in.Description,
		Type:         in.Type,
		ExpiresAt:    in.ExpiresAt,
		PublishAt:    in.PublishAt,
		Published:    publishNow,
		RewardXP:     in.RewardXP,
		RewardPoints: in.RewardPoints,
		RewardItem:   in.RewardItem,
		CreatorID:    creatorID,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&challenge).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.ErrDuplicateEntry
			}
			return err
		}
		if publishNow {
			return s.Notify.NewChallengeBroadcastTx(tx, challenge.Title)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (s *ChallengeService) Update(id string, in ChallengeInput) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrChallengeNotFound
		}
		return nil, err
	}
	challenge.Title = in.Title
	challenge.Slug = slug.Make(in.Title)
	challenge.Description = in.Description
	challenge.Type = in.Type
	challenge.ExpiresAt = in.ExpiresAt
	challenge.RewardXP = in.RewardXP
	challenge.RewardPoints = in.RewardPoints
	challenge.RewardItem = in.RewardItem
	if err := s.DB.Save(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.ErrDuplicateEntry
		}
		return nil, err
	}
	return &challenge, nil
}

// Delete removes a challenge and cascades to its tasks, memberships and
// progress rows in one transaction.
func (s *ChallengeService) Delete(id string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var taskIDs []string
		if err := tx.Model(&models.Task{}).Where("challenge_id = ?", id).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskProgress{}).Error; err != nil {
				return err
			}
			if err := tx.Where("challenge_id = ?", id).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("challenge_id = ?", id).Delete(&models.ChallengeMembership{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Challenge{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrChallengeNotFound
		}
		return nil
	})
}

// Join creates the membership and one zero progress row per task in a
// single transaction: a membership without its progress rows must never
// persist. A second join surfaces the unique violation as
// ErrAlreadyJoined.
func (s *ChallengeService) Join(userID, challengeID string) (*models.ChallengeMembership, error) {
	var membership models.ChallengeMembership
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var challenge models.Challenge
		if err := tx.First(&challenge, "id = ?", challengeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrChallengeNotFound
			}
			return err
		}
		if challenge.IsExpired() {
			return models.ErrChallengeExpired
		}

		membership = models.ChallengeMembership{
			ID:          uuid.NewString(),
			UserID:      userID,
			ChallengeID: challengeID,
			Status:      models.MembershipAccepted,
			JoinedAt:    time.Now(),
		}
		if err := tx.Create(&membership).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.ErrAlreadyJoined
			}
			return err
		}

		var tasks []models.Task
		if err := tx.Where("challenge_id = ?", challengeID).Find(&tasks).Error; err != nil {
			return err
		}
		for _, task := range tasks {
			row := models.TaskProgress{ID: uuid.NewString(), UserID: userID, TaskID: task.ID}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		if err := s.Notify.ChallengeAcceptedTx(tx, userID, challenge.Title); err != nil {
			return err
		}
		logrus.Infof("✅ Challenge joined: user=%s challenge=%s (%d tasks)", userID, challenge.Title, len(tasks))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// Leave removes the player's progress rows for the challenge and the
// membership itself. Leaving a challenge never joined is a no-op.
func (s *ChallengeService) Leave(userID, challengeID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var taskIDs []string
		if err := tx.Model(&models.Task{}).Where("challenge_id = ?", challengeID).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("user_id = ? AND task_id IN ?", userID, taskIDs).Delete(&models.TaskProgress{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("user_id = ? AND challenge_id = ?", userID, challengeID).
			Delete(&models.ChallengeMembership{}).Error
	})
}

// ChallengeStats aggregates participation for one challenge.
type ChallengeStats struct {
	ChallengeID    string  `json:"challenge_id"`
	Participants   int64   `json:"participants"`
	Completed      int64   `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
}

func (s *ChallengeService) Stats(challengeID string) (*ChallengeStats, error) {
	if _, err := s.FindByID(challengeID); err != nil {
		return nil, err
	}
	stats := ChallengeStats{ChallengeID: challengeID}
	if err := s.DB.Model(&models.ChallengeMembership{}).
		Where("challenge_id = ?", challengeID).
		Count(&stats.Participants).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.ChallengeMembership{}).
		Where("challenge_id = ? AND status = ?", challengeID, models.MembershipCompleted).
		Count(&stats.Completed).Error; err != nil {
		return nil, err
	}
	if stats.Participants > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Participants)
	}
	return &stats, nil
}

// FindForUser lists the player's memberships with their challenges.
func (s *ChallengeService) FindForUser(userID string) ([]models.ChallengeMembership, error) {
	var out []models.ChallengeMembership
	err := s.DB.Preload("Challenge").Preload("Challenge.Tasks").
		Where("user_id = ?", userID).
		Order("joined_at DESC").
		Find(&out).Error
	return out, err
}

// UserStats summarizes a player's challenge activity.
type UserStats struct {
	Accepted    int64 `json:"accepted"`
	Completed   int64 `json:"completed"`
	TotalXP     int64 `json:"total_xp"`
	TotalPoints int64 `json:"total_points"`
}

func (s *ChallengeService) UserStats(userID string) (*UserStats, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	stats := UserStats{TotalXP: user.TotalXP, TotalPoints: user.TotalPoints}
	if err := s.DB.Model(&models.ChallengeMembership{}).
		Where("user_id = ? AND status = ?", userID, models.MembershipAccepted).
		Count(&stats.Accepted).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.ChallengeMembership{}).
		Where("user_id = ? AND status = ?", userID, models.MembershipCompleted).
		Count(&stats.Completed).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
