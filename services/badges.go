package services

import (
	"errors"

	"mc-challenge-system/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BadgeService manages the badge catalog and the (player, badge) award
// set. Awarding is idempotent: the unique index is the source of truth.
type BadgeService struct {
	DB     *gorm.DB
	Notify *NotificationService
}

func NewBadgeService(db *gorm.DB, notify *NotificationService) *BadgeService {
	return &BadgeService{DB: db, Notify: notify}
}

func (s *BadgeService) FindAll() ([]models.Badge, error) {
	var badges []models.Badge
	err := s.DB.Order("created_at ASC").Find(&badges).Error
	return badges, err
}

func (s *BadgeService) FindByID(id string) (*models.Badge, error) {
	var badge models.Badge
	if err := s.DB.First(&badge, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrBadgeNotFound
		}
		return nil, err
	}
	return &badge, nil
}

func (s *BadgeService) Create(name, description string, criteria map[string]int64) (*models.Badge, error) {
	badge := models.Badge{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Criteria:    criteria,
	}
	if err := s.DB.Create(&badge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.ErrDuplicateEntry
		}
		return nil, err
	}
	return &badge, nil
}

func (s *BadgeService) Update(id string, name, description *string, criteria map[string]int64) (*models.Badge, error) {
	badge, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		badge.Name = *name
	}
	if description != nil {
		badge.Description = *description
	}
	if criteria != nil {
		badge.Criteria = criteria
	}
	if err := s.DB.Save(badge).Error; err != nil {
		return nil, err
	}
	return badge, nil
}

// SetIconURL stores the uploaded icon location on the badge.
func (s *BadgeService) SetIconURL(id, url string) (*models.Badge, error) {
	badge, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}
	badge.IconURL = url
	if err := s.DB.Save(badge).Error; err != nil {
		return nil, err
	}
	return badge, nil
}

func (s *BadgeService) Delete(id string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("badge_id = ?", id).Delete(&models.UserBadge{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Badge{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrBadgeNotFound
		}
		return nil
	})
}

// Award gives the badge to the player. Awarding twice is a no-op and
// returns the existing relation.
func (s *BadgeService) Award(userID, badgeID string) (*models.UserBadge, bool, error) {
	badge, err := s.FindByID(badgeID)
	if err != nil {
		return nil, false, err
	}
	var awarded bool
	var ub models.UserBadge
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var created bool
		created, err = s.awardTx(tx, userID, badge, &ub)
		awarded = created
		return err
	})
	if err != nil {
		return nil, false, err
	}
	ub.Badge = badge
	return &ub, awarded, nil
}

func (s *BadgeService) awardTx(tx *gorm.DB, userID string, badge *models.Badge, out *models.UserBadge) (bool, error) {
	ub := models.UserBadge{ID: uuid.NewString(), UserID: userID, BadgeID: badge.ID}
	if err := tx.Create(&ub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Reload into a fresh struct: reusing ub would leak the
			// failed create's primary key into the WHERE clause.
			var existing models.UserBadge
			if err := tx.Where("user_id = ? AND badge_id = ?", userID, badge.ID).First(&existing).Error; err != nil {
				return false, err
			}
			*out = existing
			return false, nil
		}
		return false, err
	}
	if err := s.Notify.BadgeAwardedTx(tx, userID, badge.Name); err != nil {
		return false, err
	}
	logrus.Infof("🎖️ Badge awarded: %s → %s", badge.Name, userID)
	*out = ub
	return true, nil
}

// Revoke removes the badge from the player; revoking a badge the player
// does not hold is a no-op.
func (s *BadgeService) Revoke(userID, badgeID string) error {
	return s.DB.Where("user_id = ? AND badge_id = ?", userID, badgeID).Delete(&models.UserBadge{}).Error
}

// FindForUser lists the player's awarded badges.
func (s *BadgeService) FindForUser(userID string) ([]models.UserBadge, error) {
	var out []models.UserBadge
	err := s.DB.Preload("Badge").Where("user_id = ?", userID).Order("awarded_at DESC").Find(&out).Error
	return out, err
}

// AutoAwardTx checks every badge's criteria against the player's counters
// and awards the ones newly met. Runs inside the challenge-completion
// transaction so award and reward commit together.
func (s *BadgeService) AutoAwardTx(tx *gorm.DB, userID string) error {
	var user models.User
	if err := tx.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}
	var badges []models.Badge
	if err := tx.Find(&badges).Error; err != nil {
		return err
	}
	for i := range badges {
		if !meetsCriteria(&user, badges[i].Criteria) {
			continue
		}
		var ub models.UserBadge
		if _, err := s.awardTx(tx, userID, &badges[i], &ub); err != nil {
			return err
		}
	}
	return nil
}

func meetsCriteria(user *models.User, criteria map[string]int64) bool {
	if len(criteria) == 0 {
		return false
	}
	for key, required := range criteria {
		switch key {
		case "total_xp":
			if user.TotalXP < required {
				return false
			}
		case "total_points":
			if user.TotalPoints < required {
				return false
			}
		case "total_challenges_completed":
			if user.TotalChallengesCompleted < required {
				return false
			}
		default:
			// Unknown criterion keys never match; a badge with a bad
			// criteria payload stays manual-award only.
			return false
		}
	}
	return true
}
