package services

import (
	"errors"

	"mc-challenge-system/models"

	"gorm.io/gorm"
)

// UserService covers the account read/update/delete surface. Reward
// counters are off limits here; only the reward ledger touches them.
type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

func (s *UserService) FindAll() ([]models.User, error) {
	var users []models.User
	err := s.DB.Order("created_at ASC").Find(&users).Error
	return users, err
}

func (s *UserService) FindByID(id string) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByMinecraftUUID looks an account up by its game-account id, the
// identifier the plugin knows.
func (s *UserService) FindByMinecraftUUID(uuidMC string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("minecraft_uuid = ?", uuidMC).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Update(id string, username, email *string) (*models.User, error) {
	user, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}
	if username != nil {
		user.Username = *username
	}
	if email != nil {
		user.Email = *email
	}
	if err := s.DB.Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.ErrDuplicateEntry
		}
		return nil, err
	}
	return user, nil
}

// Delete removes the account and everything hanging off it: progress
// rows, memberships, notifications and badges (cascade is the explicit
// policy here).
func (s *UserService) Delete(id string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.TaskProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.ChallengeMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.UserBadge{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrUserNotFound
		}
		return nil
	})
}
