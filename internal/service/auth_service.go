package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"relaycrm/api/internal/config"
	"relaycrm/api/internal/ids"
	"relaycrm/api/internal/models"
	"relaycrm/api/internal/repository"
	"relaycrm/api/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserSuspended      = errors.New("user suspended")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrEmailTaken         = errors.New("email already registered")
)

type userStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) error
	UpdateStatus(ctx context.Context, id string, status models.UserStatus) error
}

type sessionStore interface {
	Create(ctx context.Context, session models.Session) error
	FindByRefreshHash(ctx context.Context, userID string, refreshHash []byte) (models.Session, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	DeleteOldestSessions(ctx context.Context, userID string, keepLatest int) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}

type profileStore interface {
	Upsert(ctx context.Context, profile models.Profile) error
	GetByUserID(ctx context.Context, userID string) (models.Profile, error)
	ClearPasswordChangeFlag(ctx context.Context, userID string) error
}

type AuthService struct {
	users    userStore
	sessions sessionStore
	profiles profileStore
	cache    *redis.Client
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(
	users userStore,
	sessions sessionStore,
	profiles profileStore,
	cache *redis.Client,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		profiles: profiles,
		cache:    cache,
		cfg:      cfg,
		log:      log,
	}
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         models.User
	Profile      *models.Profile
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	if user.Status == models.UserStatusSuspended {
		return AuthResult{}, ErrUserSuspended
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.createSession(ctx, user, input.IPAddress, input.UserAgent)
}

func (s *AuthService) createSession(ctx context.Context, user models.User, ipAddress string, userAgent string) (AuthResult, error) {
	refreshToken, refreshHash, err := security.GenerateOpaqueToken(64)
	if err != nil {
		return AuthResult{}, err
	}

	session := models.Session{
		ID:               ids.New(),
		UserID:           user.ID,
		RefreshTokenHash: refreshHash,
		IPAddress:        ipAddress,
		UserAgent:        userAgent,
		ExpiresAt:        time.Now().Add(s.cfg.Security.RefreshTTL),
	}

	// Role travels in the token so middleware can authorize without a
	// profile row; the profile itself is best-effort.
	role := string(models.ProfileRoleEmployee)
	var profile *models.Profile
	if p, err := s.profiles.GetByUserID(ctx, user.ID); err == nil {
		profile = &p
		role = string(p.Role)
	}

	accessToken, err := security.GenerateAccessToken(
		s.cfg.Security.JWTAccessSecret,
		user.ID,
		session.ID,
		role,
		s.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, err
	}

	if err := s.enforceSessionLimit(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("enforce session limit failed")
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
		Profile:      profile,
	}, nil
}

func (s *AuthService) enforceSessionLimit(ctx context.Context, userID string) error {
	count, err := s.sessions.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if count <= s.cfg.Security.MaxSessions {
		return nil
	}

	return s.sessions.DeleteOldestSessions(ctx, userID, s.cfg.Security.MaxSessions)
}

type RefreshInput struct {
	UserID       string
	RefreshToken string
}

func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (AuthResult, error) {
	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if user.Status == models.UserStatusSuspended {
		return AuthResult{}, ErrUserSuspended
	}

	refreshHash := security.HashOpaqueToken(input.RefreshToken)
	session, err := s.sessions.FindByRefreshHash(ctx, input.UserID, refreshHash)
	if err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	if session.ExpiresAt.Before(time.Now()) {
		_ = s.sessions.DeleteByID(ctx, session.ID)
		return AuthResult{}, ErrInvalidCredentials
	}

	refreshToken, newHash, err := security.GenerateOpaqueToken(64)
	if err != nil {
		return AuthResult{}, err
	}

	session.RefreshTokenHash = newHash
	session.ExpiresAt = time.Now().Add(s.cfg.Security.RefreshTTL)

	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, err
	}

	role := string(models.ProfileRoleEmployee)
	var profile *models.Profile
	if p, err := s.profiles.GetByUserID(ctx, user.ID); err == nil {
		profile = &p
		role = string(p.Role)
	}

	accessToken, err := security.GenerateAccessToken(
		s.cfg.Security.JWTAccessSecret,
		user.ID,
		session.ID,
		role,
		s.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
		Profile:      profile,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	err := s.sessions.DeleteByID(ctx, sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil
	}
	return err
}

const resetKeyPrefix = "pwreset:"

// ForgotPassword issues a single-use reset token. Delivery is external; the
// token is only logged outside production. Unknown emails succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	token, hash, err := security.GenerateOpaqueToken(32)
	if err != nil {
		return err
	}

	key := resetKeyPrefix + fmt.Sprintf("%x", hash)
	if err := s.cache.Set(ctx, key, user.ID, s.cfg.Security.ResetTokenTTL).Err(); err != nil {
		return err
	}

	if s.cfg.Environment != "production" {
		s.log.Debug().Str("user_id", user.ID).Str("token", token).Msg("password reset token issued")
	} else {
		s.log.Info().Str("user_id", user.ID).Msg("password reset token issued")
	}
	return nil
}

// ResetPassword consumes a reset token, sets the new password, and revokes
// every session for the user.
func (s *AuthService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	hash := security.HashOpaqueToken(token)
	key := resetKeyPrefix + fmt.Sprintf("%x", hash)

	userID, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrInvalidResetToken
		}
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return err
	}
	s.activateIfPending(ctx, userID)
	if err := s.profiles.ClearPasswordChangeFlag(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("clear password change flag failed")
	}
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("revoke sessions failed")
	}

	_ = s.cache.Del(ctx, key).Err()
	return nil
}

// activateIfPending promotes an invited user once they have set their own
// password.
func (s *AuthService) activateIfPending(ctx context.Context, userID string) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil || user.Status != models.UserStatusPending {
		return
	}
	if err := s.users.UpdateStatus(ctx, userID, models.UserStatusActive); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("activate user failed")
	}
}

type InviteInput struct {
	Email      string
	FullName   string
	Role       models.ProfileRole
	Department string
}

// Invite creates a pending account with a generated temporary password and a
// profile flagged for a forced password change on first sign-in.
func (s *AuthService) Invite(ctx context.Context, input InviteInput) (string, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return "", err
	}

	tempPassword, _, err := security.GenerateOpaqueToken(12)
	if err != nil {
		return "", err
	}
	passwordHash, err := security.HashPassword(tempPassword)
	if err != nil {
		return "", err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		Status:       models.UserStatusPending,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", err
	}

	fullName := input.FullName
	department := input.Department
	profile := models.Profile{
		UserID:                 user.ID,
		Email:                  user.Email,
		FullName:               &fullName,
		Role:                   input.Role,
		Department:             &department,
		Status:                 "active",
		RequiresPasswordChange: true,
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return "", err
	}

	return tempPassword, nil
}
