package services

import (
	"errors"

	"mc-challenge-system/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RewardService is the ledger for player reward counters. Increments are
// append-only and applied as single atomic UPDATE statements so that
// concurrent grants never lose updates.
type RewardService struct {
	DB *gorm.DB
}

func NewRewardService(db *gorm.DB) *RewardService {
	return &RewardService{DB: db}
}

// GrantChallengeRewardTx applies a challenge's reward to the player's
// counters inside the caller's transaction: xp, points and one completed
// challenge. Caller guarantees exactly-once via the membership CAS.
func (s *RewardService) GrantChallengeRewardTx(tx *gorm.DB, userID string, xp, points int64) error {
	res := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"total_xp":                   gorm.Expr("total_xp + ?", xp),
		"total_points":               gorm.Expr("total_points + ?", points),
		"total_challenges_completed": gorm.Expr("total_challenges_completed + ?", 1),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	logrus.Infof("🎮 Reward granted: user=%s xp=+%d points=+%d", userID, xp, points)
	return nil
}

// Totals returns the player's cumulative counters.
func (s *RewardService) Totals(userID string) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
