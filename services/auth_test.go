package services

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"mc-challenge-system/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memoryCodeStore is an in-process CodeStore for tests.
type memoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]time.Time
}

func newMemoryCodeStore() *memoryCodeStore {
	return &memoryCodeStore{codes: make(map[string]time.Time)}
}

func (s *memoryCodeStore) Put(_ context.Context, code string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if expiry, ok := s.codes[code]; ok && expiry.After(time.Now()) {
		return false, nil
	}
	s.codes[code] = time.Now().Add(ttl)
	return true, nil
}

func (s *memoryCodeStore) Consume(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.codes[code]
	if !ok || expiry.Before(time.Now()) {
		return false, nil
	}
	delete(s.codes, code)
	return true, nil
}

func (s *memoryCodeStore) TTL(_ context.Context, code string) (time.Duration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.codes[code]
	if !ok || expiry.Before(time.Now()) {
		return 0, false, nil
	}
	return time.Until(expiry), true, nil
}

func newTestAuth(t *testing.T) (*AuthService, *memoryCodeStore) {
	t.Helper()
	store := newMemoryCodeStore()
	return NewAuthService(openTestDB(t), store, []byte("test-secret")), store
}

func TestGenerateLinkCodeFormat(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()

	code, expiresAt, err := svc.GenerateLinkCode(ctx)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{6}$`), code)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	remaining, err := svc.VerifyLinkCode(ctx, code)
	require.NoError(t, err)
	assert.WithinDuration(t, expiresAt, remaining, 5*time.Second)
}

func TestCompleteLinkCreatesAccount(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()

	code, _, err := svc.GenerateLinkCode(ctx)
	require.NoError(t, err)

	user, token, err := svc.CompleteLink(ctx, code, "mc-uuid-1", "Steve")
	require.NoError(t, err)
	assert.Equal(t, "Steve", user.Username)
	assert.Equal(t, "mc-uuid-1", user.MinecraftUUID)
	assert.Equal(t, models.RolePlayer, user.Role)
	require.NotNil(t, user.LastLoginAt)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, user.ID, claims["sub"])
	assert.Equal(t, "player", claims["role"])
}

func TestCompleteLinkIsSingleUse(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()

	code, _, err := svc.GenerateLinkCode(ctx)
	require.NoError(t, err)
	_, _, err = svc.CompleteLink(ctx, code, "mc-uuid-1", "Steve")
	require.NoError(t, err)

	_, _, err = svc.CompleteLink(ctx, code, "mc-uuid-2", "Alex")
	assert.ErrorIs(t, err, models.ErrLinkCodeInvalid)

	_, err = svc.VerifyLinkCode(ctx, code)
	assert.ErrorIs(t, err, models.ErrLinkCodeInvalid)
}

func TestCompleteLinkUpsertsExistingAccount(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()

	code, _, err := svc.GenerateLinkCode(ctx)
	require.NoError(t, err)
	first, _, err := svc.CompleteLink(ctx, code, "mc-uuid-1", "Steve")
	require.NoError(t, err)

	// Relinking the same game account updates in place.
	code, _, err = svc.GenerateLinkCode(ctx)
	require.NoError(t, err)
	second, _, err := svc.CompleteLink(ctx, code, "mc-uuid-1", "Steve2")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Steve2", second.Username)

	var count int64
	require.NoError(t, svc.DB.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestAuth(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	hashStr := string(hash)
	user := seedUser(t, svc.DB, models.RolePlayer)
	require.NoError(t, svc.DB.Model(user).Update("password_hash", hashStr).Error)

	got, token, err := svc.Login(user.Email, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(user.Email, "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@test.local", "hunter2")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestLoginWithoutPassword(t *testing.T) {
	svc, _ := newTestAuth(t)
	// Accounts created through the game link have no password.
	user := seedUser(t, svc.DB, models.RolePlayer)

	_, _, err := svc.Login(user.Email, "anything")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}
