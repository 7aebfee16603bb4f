package services

import (
	"errors"
	"fmt"

	"mc-challenge-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationService creates and manages per-player notifications.
// Emission helpers take a *gorm.DB so completion side effects land in the
// same transaction as the membership transition.
type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

func (s *NotificationService) createTx(tx *gorm.DB, userID string, typ models.NotificationType, message string) error {
	n := models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Type:    typ,
		Message: message,
	}
	return tx.Create(&n).Error
}

func (s *NotificationService) ChallengeAcceptedTx(tx *gorm.DB, userID, title string) error {
	return s.createTx(tx, userID, models.NotificationAccepted, fmt.Sprintf("Challenge accepted: %s", title))
}

func (s *NotificationService) ChallengeCompletedTx(tx *gorm.DB, userID, title string) error {
	return s.createTx(tx, userID, models.NotificationCompleted, fmt.Sprintf("Challenge completed: %s", title))
}

func (s *NotificationService) RewardGrantedTx(tx *gorm.DB, userID string, xp, points int64) error {
	return s.createTx(tx, userID, models.NotificationReward,
		fmt.Sprintf("Reward received: %d XP, %d points", xp, points))
}

func (s *NotificationService) BadgeAwardedTx(tx *gorm.DB, userID, badgeName string) error {
	return s.createTx(tx, userID, models.NotificationBadge,
		fmt.Sprintf("Congratulations! You earned the badge %q", badgeName))
}

// NewChallengeBroadcastTx notifies every player account that a challenge
// became available.
func (s *NotificationService) NewChallengeBroadcastTx(tx *gorm.DB, title string) error {
	var userIDs []string
	if err := tx.Model(&models.User{}).Where("role = ?", models.RolePlayer).Pluck("id", &userIDs).Error; err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}
	batch := make([]models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		batch = append(batch, models.Notification{
			ID:      uuid.NewString(),
			UserID:  id,
			Type:    models.NotificationNewChallenge,
			Message: fmt.Sprintf("New challenge available: %s", title),
		})
	}
	return tx.CreateInBatches(batch, 100).Error
}

// ListForUser returns a player's notifications, newest first. Unless
// includeRead is set, only unread ones are returned.
func (s *NotificationService) ListForUser(userID string, includeRead bool) ([]models.Notification, error) {
	q := s.DB.Where("user_id = ?", userID)
	if !includeRead {
		q = q.Where("read = ?", false)
	}
	var out []models.Notification
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *NotificationService) CountUnread(userID string) (int64, error) {
	var n int64
	err := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// MarkRead flips the read flag on one of the player's notifications.
func (s *NotificationService) MarkRead(id, userID string) (*models.Notification, error) {
	var n models.Notification
	if err := s.DB.First(&n, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotificationNotFound
		}
		return nil, err
	}
	if !n.Read {
		n.Read = true
		if err := s.DB.Save(&n).Error; err != nil {
			return nil, err
		}
	}
	return &n, nil
}

func (s *NotificationService) MarkAllRead(userID string) (int64, error) {
	res := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

func (s *NotificationService) Delete(id, userID string) error {
	res := s.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotificationNotFound
	}
	return nil
}

// DeleteRead removes all of the player's already-read notifications.
func (s *NotificationService) DeleteRead(userID string) (int64, error) {
	res := s.DB.Where("user_id = ? AND read = ?", userID, true).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
