package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaycrm/api/internal/config"
	"relaycrm/api/internal/models"
	"relaycrm/api/internal/repository"
	"relaycrm/api/internal/security"
)

type fakeUserStore struct {
	byEmail map[string]models.User
	byID    map[string]models.User
	created []models.User
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	s := &fakeUserStore{
		byEmail: make(map[string]models.User),
		byID:    make(map[string]models.User),
	}
	for _, u := range users {
		s.byEmail[u.Email] = u
		s.byID[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) error {
	s.created = append(s.created, user)
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id string, passwordHash []byte) error {
	u, ok := s.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	s.byID[id] = u
	s.byEmail[u.Email] = u
	return nil
}

func (s *fakeUserStore) UpdateStatus(_ context.Context, id string, status models.UserStatus) error {
	u, ok := s.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Status = status
	s.byID[id] = u
	s.byEmail[u.Email] = u
	return nil
}

type fakeSessionStore struct {
	sessions map[string]models.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]models.Session)}
}

func (s *fakeSessionStore) Create(_ context.Context, session models.Session) error {
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeSessionStore) FindByRefreshHash(_ context.Context, userID string, refreshHash []byte) (models.Session, error) {
	for _, sess := range s.sessions {
		if sess.UserID == userID && bytes.Equal(sess.RefreshTokenHash, refreshHash) {
			return sess, nil
		}
	}
	return models.Session{}, repository.ErrSessionNotFound
}

func (s *fakeSessionStore) CountByUser(_ context.Context, userID string) (int, error) {
	count := 0
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *fakeSessionStore) DeleteOldestSessions(_ context.Context, _ string, _ int) error {
	return nil
}

func (s *fakeSessionStore) DeleteByID(_ context.Context, id string) error {
	if _, ok := s.sessions[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *fakeSessionStore) DeleteByUser(_ context.Context, userID string) error {
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

type fakeProfileStore struct {
	profiles map[string]models.Profile
	upserted []models.Profile
}

func newFakeProfileStore(profiles ...models.Profile) *fakeProfileStore {
	s := &fakeProfileStore{profiles: make(map[string]models.Profile)}
	for _, p := range profiles {
		s.profiles[p.UserID] = p
	}
	return s
}

func (s *fakeProfileStore) Upsert(_ context.Context, profile models.Profile) error {
	s.upserted = append(s.upserted, profile)
	s.profiles[profile.UserID] = profile
	return nil
}

func (s *fakeProfileStore) GetByUserID(_ context.Context, userID string) (models.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return models.Profile{}, repository.ErrProfileNotFound
	}
	return p, nil
}

func (s *fakeProfileStore) ClearPasswordChangeFlag(_ context.Context, userID string) error {
	p, ok := s.profiles[userID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	p.RequiresPasswordChange = false
	s.profiles[userID] = p
	return nil
}

func testAuthConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTAccessSecret: "unit-test-secret",
			JWTAccessTTL:    15 * time.Minute,
			RefreshTTL:      24 * time.Hour,
			ResetTokenTTL:   time.Hour,
			MaxSessions:     10,
		},
	}
}

func newTestUser(t *testing.T, id, email, password string) models.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	return models.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Status:       models.UserStatusActive,
	}
}

func TestLoginIssuesTokensAndSession(t *testing.T) {
	user := newTestUser(t, "user-1", "ada@example.com", "pass123")
	fullName := "Ada Lovelace"
	profile := models.Profile{UserID: "user-1", Email: user.Email, FullName: &fullName, Role: models.ProfileRoleManager}

	users := newFakeUserStore(user)
	sessions := newFakeSessionStore()
	profiles := newFakeProfileStore(profile)
	svc := NewAuthService(users, sessions, profiles, nil, testAuthConfig(), zerolog.Nop())

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "Ada@Example.com",
		Password: "pass123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "user-1", result.User.ID)
	require.NotNil(t, result.Profile)
	assert.Equal(t, models.ProfileRoleManager, result.Profile.Role)
	assert.Len(t, sessions.sessions, 1)

	claims, err := security.ParseAccessToken(result.AccessToken, "unit-test-secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "manager", claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	user := newTestUser(t, "user-1", "ada@example.com", "pass123")
	svc := NewAuthService(newFakeUserStore(user), newFakeSessionStore(), newFakeProfileStore(), nil, testAuthConfig(), zerolog.Nop())

	_, err := svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(newFakeUserStore(), newFakeSessionStore(), newFakeProfileStore(), nil, testAuthConfig(), zerolog.Nop())

	_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "pass123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginSuspendedUser(t *testing.T) {
	user := newTestUser(t, "user-1", "ada@example.com", "pass123")
	user.Status = models.UserStatusSuspended
	svc := NewAuthService(newFakeUserStore(user), newFakeSessionStore(), newFakeProfileStore(), nil, testAuthConfig(), zerolog.Nop())

	_, err := svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "pass123"})
	assert.ErrorIs(t, err, ErrUserSuspended)
}

func TestLoginWithoutProfileDefaultsRole(t *testing.T) {
	user := newTestUser(t, "user-1", "ada@example.com", "pass123")
	svc := NewAuthService(newFakeUserStore(user), newFakeSessionStore(), newFakeProfileStore(), nil, testAuthConfig(), zerolog.Nop())

	result, err := svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "pass123"})
	require.NoError(t, err)
	assert.Nil(t, result.Profile)

	claims, err := security.ParseAccessToken(result.AccessToken, "unit-test-secret")
	require.NoError(t, err)
	assert.Equal(t, string(models.ProfileRoleEmployee), claims.Role)
}

func TestRefreshRotatesToken(t *testing.T) {
	user := newTestUser(t, "user-1", "ada@example.com", "pass123")
	users := newFakeUserStore(user)
	sessions := newFakeSessionStore()
	svc := NewAuthService(users, sessions, newFakeProfileStore(), nil, testAuthConfig(), zerolog.Nop())

	login, err := svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "pass123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), RefreshInput{
		UserID:       "user-1",
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// Old refresh token no longer matches any stored session.
	_, err = svc.Refresh(context.Background(), RefreshInput{
		UserID:       "user-1",
		RefreshToken: login.RefreshToken,
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	user := newTestUser(t, "user-1", "ada@example.com", "pass123")
	svc := NewAuthService(newFakeUserStore(user), newFakeSessionStore(), newFakeProfileStore(), nil, testAuthConfig(), zerolog.Nop())

	_, err := svc.Refresh(context.Background(), RefreshInput{UserID: "user-1", RefreshToken: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutIsIdempotent(t *testing.T) {
	user := newTestUser(t, "user-1", "ada@example.com", "pass123")
	sessions := newFakeSessionStore()
	svc := NewAuthService(newFakeUserStore(user), sessions, newFakeProfileStore(), nil, testAuthConfig(), zerolog.Nop())

	login, err := svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "pass123"})
	require.NoError(t, err)

	claims, err := security.ParseAccessToken(login.AccessToken, "unit-test-secret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims.SessionID))
	assert.Empty(t, sessions.sessions)

	// A second logout of the same session is not an error.
	require.NoError(t, svc.Logout(context.Background(), claims.SessionID))
}

func TestInviteCreatesUserAndFlaggedProfile(t *testing.T) {
	users := newFakeUserStore()
	profiles := newFakeProfileStore()
	svc := NewAuthService(users, newFakeSessionStore(), profiles, nil, testAuthConfig(), zerolog.Nop())

	tempPassword, err := svc.Invite(context.Background(), InviteInput{
		Email:      "New.Hire@Example.com",
		FullName:   "New Hire",
		Role:       models.ProfileRoleEmployee,
		Department: "Sales",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tempPassword)

	require.Len(t, users.created, 1)
	created := users.created[0]
	assert.Equal(t, "new.hire@example.com", created.Email)
	assert.Equal(t, models.UserStatusPending, created.Status)

	ok, err := security.VerifyPassword(tempPassword, created.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, profiles.upserted, 1)
	assert.True(t, profiles.upserted[0].RequiresPasswordChange)
	assert.Equal(t, models.ProfileRoleEmployee, profiles.upserted[0].Role)
}

func TestInvitedUserActivatesOnPasswordReset(t *testing.T) {
	user := newTestUser(t, "user-1", "new.hire@example.com", "temp")
	user.Status = models.UserStatusPending
	users := newFakeUserStore(user)
	svc := NewAuthService(users, newFakeSessionStore(), newFakeProfileStore(), nil, testAuthConfig(), zerolog.Nop())

	svc.activateIfPending(context.Background(), "user-1")

	promoted, err := users.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, promoted.Status)

	// A suspended user is never promoted.
	suspended := newTestUser(t, "user-2", "gone@example.com", "x")
	suspended.Status = models.UserStatusSuspended
	users2 := newFakeUserStore(suspended)
	svc2 := NewAuthService(users2, newFakeSessionStore(), newFakeProfileStore(), nil, testAuthConfig(), zerolog.Nop())

	svc2.activateIfPending(context.Background(), "user-2")

	unchanged, err := users2.GetByID(context.Background(), "user-2")
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusSuspended, unchanged.Status)
}

func TestInviteRejectsExistingEmail(t *testing.T) {
	user := newTestUser(t, "user-1", "ada@example.com", "pass123")
	svc := NewAuthService(newFakeUserStore(user), newFakeSessionStore(), newFakeProfileStore(), nil, testAuthConfig(), zerolog.Nop())

	_, err := svc.Invite(context.Background(), InviteInput{Email: "ada@example.com", Role: models.ProfileRoleEmployee})
	assert.ErrorIs(t, err, ErrEmailTaken)
}
