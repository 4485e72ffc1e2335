package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	for _, model := range Models() {
		require.NoError(t, db.AutoMigrate(model))
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	s, err := NewService(db, Config{JWTSecret: "test-secret"}, nil)
	require.NoError(t, err)
	clock := &fakeClock{now: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)}
	s.now = clock.Now
	return s, clock
}

func createStaff(t *testing.T, s *Service, username, password string) *AdminUser {
	t.Helper()
	user, err := s.CreateUser(context.Background(), AdminUser{
		Username: username,
		IsStaff:  true,
		IsActive: true,
	}, password)
	require.NoError(t, err)
	return user
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService(nil, Config{}, nil)
	assert.Error(t, err)
}

func TestLoginIssuesUsableToken(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	createStaff(t, s, "admin", "s3cret!")

	token, user, err := s.Login(ctx, " admin ", "s3cret!", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, user.LastLogin)

	resolved, err := s.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "admin", resolved.Username)
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	s, clock := newTestService(t)
	ctx := context.Background()
	createStaff(t, s, "admin", "s3cret!")

	for i := 0; i < 5; i++ {
		_, _, err := s.Login(ctx, "admin", "wrong", "10.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, _, err := s.Login(ctx, "admin", "s3cret!", "10.0.0.1")
	assert.ErrorIs(t, err, ErrLocked)

	clock.Advance(29 * time.Minute)
	_, _, err = s.Login(ctx, "admin", "s3cret!", "10.0.0.1")
	assert.ErrorIs(t, err, ErrLocked)

	clock.Advance(2 * time.Minute)
	_, _, err = s.Login(ctx, "admin", "s3cret!", "10.0.0.1")
	require.NoError(t, err)

	// a successful login clears the counter
	attempt, err := s.loadAttempt(ctx, "admin")
	require.NoError(t, err)
	assert.Nil(t, attempt)
}

func TestLoginFailuresOutsideWindowStartFresh(t *testing.T) {
	s, clock := newTestService(t)
	ctx := context.Background()
	createStaff(t, s, "admin", "s3cret!")

	for i := 0; i < 4; i++ {
		_, _, _ = s.Login(ctx, "admin", "wrong", "10.0.0.1")
	}
	clock.Advance(time.Hour)
	_, _, err := s.Login(ctx, "admin", "wrong", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	attempt, err := s.loadAttempt(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, attempt.Failures)
	assert.Nil(t, attempt.LockedUntil)
}

func TestLoginUnknownUserCountsAsFailure(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := s.Login(ctx, "ghost", "whatever", "10.0.0.2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	attempt, err := s.loadAttempt(ctx, "ghost")
	require.NoError(t, err)
	require.NotNil(t, attempt)
	assert.Equal(t, "10.0.0.2", attempt.IPAddress)
}

func TestLoginRejectsNonStaffAndInactive(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, AdminUser{Username: "viewer", IsActive: true}, "pw")
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, AdminUser{Username: "former", IsStaff: true}, "pw")
	require.NoError(t, err)

	_, _, err = s.Login(ctx, "viewer", "pw", "")
	assert.ErrorIs(t, err, ErrNotStaff)

	_, _, err = s.Login(ctx, "former", "pw", "")
	assert.ErrorIs(t, err, ErrInactive)
}

func TestLogoutRevokesTokens(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	createStaff(t, s, "admin", "s3cret!")

	token, user, err := s.Login(ctx, "admin", "s3cret!", "")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, user))
	_, err = s.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	fresh, _, err := s.Login(ctx, "admin", "s3cret!", "")
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, fresh)
	assert.NoError(t, err)
}

func TestAuthenticateRejectsExpiredAndForeignTokens(t *testing.T) {
	s, clock := newTestService(t)
	ctx := context.Background()
	createStaff(t, s, "admin", "s3cret!")

	token, _, err := s.Login(ctx, "admin", "s3cret!", "")
	require.NoError(t, err)

	other, err := NewService(s.db, Config{JWTSecret: "other-secret"}, nil)
	require.NoError(t, err)
	_, err = other.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	clock.Advance(25 * time.Hour)
	_, err = s.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEnsureAdminRunsOnce(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.EnsureAdmin(ctx, "", "", "")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = s.EnsureAdmin(ctx, "root", "root@msc-cert.com", "pw")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureAdmin(ctx, "second", "", "pw")
	require.NoError(t, err)
	assert.False(t, created)

	_, user, err := s.Login(ctx, "root", "pw", "")
	require.NoError(t, err)
	assert.True(t, user.IsSuperuser)
}
