package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"mc-challenge-system/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	linkCodeTTL = 5 * time.Minute
	tokenTTL    = 7 * 24 * time.Hour
)

// AuthService handles the in-game account-link flow and password login.
// Link codes live in the CodeStore (Redis) with a TTL, not in process
// memory.
type AuthService struct {
	DB        *gorm.DB
	Codes     CodeStore
	JWTSecret []byte
}

func NewAuthService(db *gorm.DB, codes CodeStore, jwtSecret []byte) *AuthService {
	return &AuthService{DB: db, Codes: codes, JWTSecret: jwtSecret}
}

// GenerateLinkCode mints a 6-character code the player types in game
// (/link CODE). Valid for 5 minutes, single use.
func (s *AuthService) GenerateLinkCode(ctx context.Context) (string, time.Time, error) {
	for attempt := 0; attempt < 3; attempt++ {
		buf := make([]byte, 3)
		if _, err := rand.Read(buf); err != nil {
			return "", time.Time{}, err
		}
		code := strings.ToUpper(hex.EncodeToString(buf))
		stored, err := s.Codes.Put(ctx, code, linkCodeTTL)
		if err != nil {
			return "", time.Time{}, err
		}
		if stored {
			return code, time.Now().Add(linkCodeTTL), nil
		}
	}
	return "", time.Time{}, fmt.Errorf("link code collision, retry")
}

// VerifyLinkCode reports whether the code is still pending, without
// consuming it.
func (s *AuthService) VerifyLinkCode(ctx context.Context, code string) (time.Time, error) {
	ttl, ok, err := s.Codes.TTL(ctx, strings.ToUpper(code))
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, models.ErrLinkCodeInvalid
	}
	return time.Now().Add(ttl), nil
}

// CompleteLink is called by the plugin once the player typed the code in
// game. It consumes the code, upserts the account keyed on the Minecraft
// UUID and returns a session token.
func (s *AuthService) CompleteLink(ctx context.Context, code, minecraftUUID, username string) (*models.User, string, error) {
	ok, err := s.Codes.Consume(ctx, strings.ToUpper(code))
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", models.ErrLinkCodeInvalid
	}

	now := time.Now()
	var user models.User
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("minecraft_uuid = ?", minecraftUUID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				ID:            uuid.NewString(),
				MinecraftUUID: minecraftUUID,
				Username:      username,
				// Placeholder address until the player sets a real one.
				Email:       fmt.Sprintf("%s@minecraft.local", minecraftUUID),
				Role:        models.RolePlayer,
				LastLoginAt: &now,
			}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		user.Username = username
		user.LastLoginAt = &now
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.IssueToken(&user)
	if err != nil {
		return nil, "", err
	}
	logrus.Infof("🔗 Account linked: %s (%s)", username, minecraftUUID)
	return &user, token, nil
}

// Login authenticates with email and password.
func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	var user models.User
	if err := s.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", models.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if user.PasswordHash == nil {
		return nil, "", models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, "", models.ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.DB.Save(&user).Error; err != nil {
		return nil, "", err
	}

	token, err := s.IssueToken(&user)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// IssueToken signs a session JWT for the user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.JWTSecret)
}
