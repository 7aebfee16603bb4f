package services

import (
	"fmt"
	"testing"

	"mc-challenge-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB spins up an in-memory database with the full schema. A
// single connection keeps the in-memory store shared across the pool.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Action{},
		&models.Challenge{},
		&models.Task{},
		&models.ChallengeMembership{},
		&models.TaskProgress{},
		&models.Notification{},
		&models.Badge{},
		&models.UserBadge{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	id := uuid.NewString()
	user := models.User{
		ID:            id,
		MinecraftUUID: uuid.NewString(),
		Username:      "player-" + id[:8],
		Email:         fmt.Sprintf("%s@test.local", id[:8]),
		Role:          role,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedChallenge(t *testing.T, db *gorm.DB, title string, xp, points int64) *models.Challenge {
	t.Helper()
	challenge := models.Challenge{
		ID:           uuid.NewString(),
		Title:        title,
		Slug:         uuid.NewString(),
		Type:         models.ChallengePeriodic,
		Published:    true,
		RewardXP:     xp,
		RewardPoints: points,
		CreatorID:    uuid.NewString(),
	}
	require.NoError(t, db.Create(&challenge).Error)
	return &challenge
}

func seedAction(t *testing.T, db *gorm.DB, name string) *models.Action {
	t.Helper()
	action := models.Action{ID: uuid.NewString(), Name: name}
	require.NoError(t, db.Create(&action).Error)
	return &action
}

func seedTask(t *testing.T, db *gorm.DB, challengeID, actionID string, quantity int64, params map[string]any) *models.Task {
	t.Helper()
	task := models.Task{
		ID:          uuid.NewString(),
		ChallengeID: challengeID,
		ActionID:    actionID,
		Quantity:    quantity,
		Parameters:  params,
	}
	require.NoError(t, db.Create(&task).Error)
	return &task
}

// newTestStack builds the full service graph over one test database.
func newTestStack(t *testing.T) (*gorm.DB, *ChallengeService, *ProgressService, *NotificationService, *BadgeService) {
	t.Helper()
	db := openTestDB(t)
	notify := NewNotificationService(db)
	rewards := NewRewardService(db)
	badges := NewBadgeService(db, notify)
	progress := NewProgressService(db, rewards, notify, badges)
	challenges := NewChallengeService(db, notify)
	return db, challenges, progress, notify, badges
}
