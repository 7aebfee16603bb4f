package services

import (
	"errors"
	"time"

	"mc-challenge-system/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProgressService owns the per-(player, task) counters and the
// challenge-completion evaluation that turns task completion into
// rewards and notifications.
type ProgressService struct {
	DB      *gorm.DB
	Rewards *RewardService
	Notify  *NotificationService
	Badges  *BadgeService
}

func NewProgressService(db *gorm.DB, rewards *RewardService, notify *NotificationService, badges *BadgeService) *ProgressService {
	return &ProgressService{DB: db, Rewards: rewards, Notify: notify, Badges: badges}
}

// ProgressUpdate is the outcome of one increment.
type ProgressUpdate struct {
	Progress *models.TaskProgress `json:"progress"`
	Task     *models.Task         `json:"task"`
	// TaskCompleted is the completion state after this increment;
	// NewlyCompleted is true only on the increment that crossed the
	// task's target.
	TaskCompleted  bool `json:"task_completed"`
	NewlyCompleted bool `json:"-"`
}

// Increment adds amount to the player's counter for a task and keeps the
// completed flag in sync in the same UPDATE statement, so concurrent
// increments neither lose updates nor observe a stale flag.
//
// The progress row is normally created at join time. If it is missing but
// both the player and the task exist, a zero row is created first: the
// plugin may report events before membership bookkeeping catches up, and
// dropping those reports would lose progress.
//
// Once a task is completed further increments still accumulate (the
// counter is allowed to overflow the target); completion is a threshold
// crossing, not a cap, and idempotence lives at the challenge level.
func (s *ProgressService) Increment(userID, taskID string, amount int64) (*ProgressUpdate, error) {
	if amount < 1 {
		amount = 1
	}
	var out ProgressUpdate
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.Preload("Action").First(&task, "id = ?", taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrTaskNotFound
			}
			return err
		}

		var row models.TaskProgress
		err := tx.Where("user_id = ? AND task_id = ?", userID, taskID).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			var user models.User
			if err := tx.First(&user, "id = ?", userID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrUserNotFound
				}
				return err
			}
			row = models.TaskProgress{ID: uuid.NewString(), UserID: userID, TaskID: taskID}
			if err := tx.Create(&row).Error; err != nil {
				if !errors.Is(err, gorm.ErrDuplicatedKey) {
					return err
				}
				// Lost the race against a concurrent auto-create. Reload
				// into a fresh struct so the failed create's primary key
				// does not leak into the lookup.
				var existing models.TaskProgress
				if err := tx.Where("user_id = ? AND task_id = ?", userID, taskID).First(&existing).Error; err != nil {
					return err
				}
				row = existing
			}
		} else if err != nil {
			return err
		}

		wasCompleted := row.Completed
		res := tx.Model(&models.TaskProgress{}).Where("id = ?", row.ID).Updates(map[string]any{
			"progress":  gorm.Expr("progress + ?", amount),
			"completed": gorm.Expr("progress + ? >= ?", amount, task.Quantity),
		})
		if res.Error != nil {
			return res.Error
		}

		if err := tx.First(&row, "id = ?", row.ID).Error; err != nil {
			return err
		}
		row.Task = &task

		out = ProgressUpdate{
			Progress:       &row,
			Task:           &task,
			TaskCompleted:  row.Completed,
			NewlyCompleted: row.Completed && !wasCompleted,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckChallengeCompletion reports whether the player has completed every
// task of the challenge. On the accepted→completed transition it grants
// the challenge reward, bumps the completion counter and emits the
// completion notifications exactly once: the membership update is
// conditioned on the current status, and side effects run only when that
// conditional update changed a row. A challenge with zero tasks never
// completes.
func (s *ProgressService) CheckChallengeCompletion(userID, challengeID string) (bool, error) {
	complete := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var challenge models.Challenge
		if err := tx.First(&challenge, "id = ?", challengeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrChallengeNotFound
			}
			return err
		}

		var totalTasks int64
		if err := tx.Model(&models.Task{}).Where("challenge_id = ?", challengeID).Count(&totalTasks).Error; err != nil {
			return err
		}
		if totalTasks == 0 {
			return nil
		}

		var completedTasks int64
		if err := tx.Model(&models.TaskProgress{}).
			Joins("JOIN tasks ON tasks.id = task_progresses.task_id").
			Where("tasks.challenge_id = ? AND task_progresses.user_id = ? AND task_progresses.completed = ?",
				challengeID, userID, true).
			Count(&completedTasks).Error; err != nil {
			return err
		}
		if completedTasks != totalTasks {
			return nil
		}
		complete = true

		// Conditional update is the exactly-once boundary: only the
		// caller that flips accepted→completed runs the side effects.
		now := time.Now()
		res := tx.Model(&models.ChallengeMembership{}).
			Where("user_id = ? AND challenge_id = ? AND status = ?", userID, challengeID, models.MembershipAccepted).
			Updates(map[string]any{"status": models.MembershipCompleted, "completed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := s.Rewards.GrantChallengeRewardTx(tx, userID, challenge.RewardXP, challenge.RewardPoints); err != nil {
			return err
		}
		if err := s.Notify.ChallengeCompletedTx(tx, userID, challenge.Title); err != nil {
			return err
		}
		if challenge.RewardXP > 0 || challenge.RewardPoints > 0 {
			if err := s.Notify.RewardGrantedTx(tx, userID, challenge.RewardXP, challenge.RewardPoints); err != nil {
				return err
			}
		}
		if err := s.Badges.AutoAwardTx(tx, userID); err != nil {
			return err
		}

		logrus.Infof("🏆 Challenge completed: user=%s challenge=%s (+%d XP, +%d points)",
			userID, challenge.Title, challenge.RewardXP, challenge.RewardPoints)
		return nil
	})
	if err != nil {
		return false, err
	}
	return complete, nil
}

// FindByID returns one progress row with its task, action and challenge.
func (s *ProgressService) FindByID(id string) (*models.TaskProgress, error) {
	var row models.TaskProgress
	err := s.DB.Preload("Task").Preload("Task.Action").Preload("User").First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrProgressNotFound
		}
		return nil, err
	}
	return &row, nil
}

// FindAllByUser returns every progress row of a player.
func (s *ProgressService) FindAllByUser(userID string) ([]models.TaskProgress, error) {
	var rows []models.TaskProgress
	err := s.DB.Preload("Task").Preload("Task.Action").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// FindByUserAndChallenge returns the player's rows for one challenge.
func (s *ProgressService) FindByUserAndChallenge(userID, challengeID string) ([]models.TaskProgress, error) {
	var rows []models.TaskProgress
	err := s.DB.Preload("Task").Preload("Task.Action").
		Joins("JOIN tasks ON tasks.id = task_progresses.task_id").
		Where("tasks.challenge_id = ? AND task_progresses.user_id = ?", challengeID, userID).
		Find(&rows).Error
	return rows, err
}

// FindAllByChallenge returns every player's rows for one challenge.
func (s *ProgressService) FindAllByChallenge(challengeID string) ([]models.TaskProgress, error) {
	var rows []models.TaskProgress
	err := s.DB.Preload("Task").Preload("Task.Action").Preload("User").
		Joins("JOIN tasks ON tasks.id = task_progresses.task_id").
		Where("tasks.challenge_id = ?", challengeID).
		Find(&rows).Error
	return rows, err
}

// Update overwrites a progress row (admin/system path). The completed
// flag is recomputed against the task target, never taken from input.
func (s *ProgressService) Update(id string, progress int64) (*models.TaskProgress, error) {
	var row models.TaskProgress
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Task").First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrProgressNotFound
			}
			return err
		}
		row.Progress = progress
		row.Completed = row.Task != nil && progress >= row.Task.Quantity
		return tx.Save(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *ProgressService) Delete(id string) error {
	res := s.DB.Delete(&models.TaskProgress{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrProgressNotFound
	}
	return nil
}

// ResetByUserAndChallenge wipes the player's progress rows for a
// challenge. Fresh zero rows reappear on the next join.
func (s *ProgressService) ResetByUserAndChallenge(userID, challengeID string) (int64, error) {
	var taskIDs []string
	if err := s.DB.Model(&models.Task{}).Where("challenge_id = ?", challengeID).Pluck("id", &taskIDs).Error; err != nil {
		return 0, err
	}
	if len(taskIDs) == 0 {
		return 0, nil
	}
	res := s.DB.Where("user_id = ? AND task_id IN ?", userID, taskIDs).Delete(&models.TaskProgress{})
	return res.RowsAffected, res.Error
}
