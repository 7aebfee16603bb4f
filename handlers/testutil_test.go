package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"mc-challenge-system/middleware"
	"mc-challenge-system/models"
	"mc-challenge-system/services"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testSecret = []byte("test-secret")

// memoryCodeStore backs the auth routes in tests.
type memoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]time.Time
}

func (s *memoryCodeStore) Put(_ context.Context, code string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[code]; ok {
		return false, nil
	}
	s.codes[code] = time.Now().Add(ttl)
	return true, nil
}

func (s *memoryCodeStore) Consume(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[code]; !ok {
		return false, nil
	}
	delete(s.codes, code)
	return true, nil
}

func (s *memoryCodeStore) TTL(_ context.Context, code string) (time.Duration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.codes[code]
	if !ok {
		return 0, false, nil
	}
	return time.Until(expiry), true, nil
}

type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	auth    *services.AuthService
	actions *services.ActionService
}

func newTestEnv(t *testing.T) *testEnv {
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

	notify := services.NewNotificationService(db)
	rewards := services.NewRewardService(db)
	badges := services.NewBadgeService(db, notify)
	progress := services.NewProgressService(db, rewards, notify, badges)
	challenges := services.NewChallengeService(db, notify)
	tasks := services.NewTaskService(db)
	actions := services.NewActionService(db, progress)
	users := services.NewUserService(db)
	auth := services.NewAuthService(db, &memoryCodeStore{codes: make(map[string]time.Time)}, testSecret)

	app := fiber.New()
	authmw := middleware.Authenticated(db, testSecret)
	SetupAuthRoutes(app, auth)
	SetupChallengeRoutes(app, authmw, challenges, tasks, progress)
	SetupProgressRoutes(app, authmw, progress)
	SetupActionRoutes(app, authmw, actions)
	SetupNotificationRoutes(app, authmw, notify)
	SetupUserRoutes(app, authmw, users, challenges, progress)
	SetupBadgeRoutes(app, authmw, badges)

	return &testEnv{app: app, db: db, auth: auth, actions: actions}
}

func (e *testEnv) seedUser(t *testing.T, role models.Role) (*models.User, string) {
	t.Helper()
	id := uuid.NewString()
	user := models.User{
		ID:            id,
		MinecraftUUID: uuid.NewString(),
		Username:      "player-" + id[:8],
		Email:         fmt.Sprintf("%s@test.local", id[:8]),
		Role:          role,
	}
	require.NoError(t, e.db.Create(&user).Error)
	token, err := e.auth.IssueToken(&user)
	require.NoError(t, err)
	return &user, token
}

func (e *testEnv) seedChallenge(t *testing.T, title string, xp int64) *models.Challenge {
	t.Helper()
	challenge := models.Challenge{
		ID:        uuid.NewString(),
		Title:     title,
		Slug:      uuid.NewString(),
		Type:      models.ChallengePeriodic,
		Published: true,
		RewardXP:  xp,
		CreatorID: uuid.NewString(),
	}
	require.NoError(t, e.db.Create(&challenge).Error)
	return &challenge
}

func (e *testEnv) seedTask(t *testing.T, challengeID string, quantity int64) *models.Task {
	t.Helper()
	action := models.Action{ID: uuid.NewString(), Name: "ACTION_" + uuid.NewString()[:8]}
	require.NoError(t, e.db.Create(&action).Error)
	task := models.Task{
		ID:          uuid.NewString(),
		ChallengeID: challengeID,
		ActionID:    action.ID,
		Quantity:    quantity,
	}
	require.NoError(t, e.db.Create(&task).Error)
	return &task
}

// do issues a request against the in-process app and decodes the JSON
// response body.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}
