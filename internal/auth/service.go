package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrLocked             = errors.New("auth: account temporarily locked")
	ErrNotStaff           = errors.New("auth: admin privileges required")
	ErrInactive           = errors.New("auth: account disabled")
	ErrInvalidToken       = errors.New("auth: invalid or expired token")
)

// Config tunes token issuance and the login lockout.
type Config struct {
	JWTSecret       string
	TokenTTL        time.Duration
	FailureLimit    int
	LockoutDuration time.Duration
}

// Claims carries the user id as subject and the token version that must
// match the user's current version.
type Claims struct {
	Version int `json:"ver"`
	jwt.RegisteredClaims
}

type Service struct {
	db     *gorm.DB
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

func NewService(db *gorm.DB, cfg Config, logger *zap.Logger) (*Service, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.FailureLimit <= 0 {
		cfg.FailureLimit = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, cfg: cfg, logger: logger, now: time.Now}, nil
}

// LockoutDuration is reported to clients when an account is locked.
func (s *Service) LockoutDuration() time.Duration {
	return s.cfg.LockoutDuration
}

// HashPassword returns a bcrypt hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Login checks credentials and issues an access token. Locked usernames are
// rejected before the password is looked at.
func (s *Service) Login(ctx context.Context, username, password, ip string) (string, *AdminUser, error) {
	username = strings.TrimSpace(username)
	now := s.now()

	attempt, err := s.loadAttempt(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if attempt != nil && attempt.LockedUntil != nil && now.Before(*attempt.LockedUntil) {
		return "", nil, ErrLocked
	}

	var user AdminUser
	err = s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, err
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		if ferr := s.recordFailure(ctx, attempt, username, ip, now); ferr != nil {
			s.logger.Error("Failed to record login failure", zap.String("username", username), zap.Error(ferr))
		}
		return "", nil, ErrInvalidCredentials
	}

	if attempt != nil {
		if err := s.db.WithContext(ctx).Delete(attempt).Error; err != nil {
			s.logger.Warn("Failed to reset login attempts", zap.String("username", username), zap.Error(err))
		}
	}

	if !user.IsStaff {
		return "", nil, ErrNotStaff
	}
	if !user.IsActive {
		return "", nil, ErrInactive
	}

	user.LastLogin = &now
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		return "", nil, err
	}

	token, err := s.issueToken(&user)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("Admin logged in", zap.String("username", user.Username))
	return token, &user, nil
}

func (s *Service) loadAttempt(ctx context.Context, username string) (*LoginAttempt, error) {
	var attempt LoginAttempt
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// recordFailure counts a failed login. Failures older than the lockout
// window start a fresh count.
func (s *Service) recordFailure(ctx context.Context, attempt *LoginAttempt, username, ip string, now time.Time) error {
	if attempt == nil {
		attempt = &LoginAttempt{Username: username}
	}
	if !attempt.LastFailureAt.IsZero() && now.Sub(attempt.LastFailureAt) > s.cfg.LockoutDuration {
		attempt.Failures = 0
		attempt.LockedUntil = nil
	}
	attempt.Failures++
	attempt.LastFailureAt = now
	attempt.IPAddress = ip
	if attempt.Failures >= s.cfg.FailureLimit {
		until := now.Add(s.cfg.LockoutDuration)
		attempt.LockedUntil = &until
		s.logger.Warn("Login locked after repeated failures",
			zap.String("username", username),
			zap.String("ip", ip),
			zap.Int("failures", attempt.Failures),
		)
	}
	return s.db.WithContext(ctx).Save(attempt).Error
}

func (s *Service) issueToken(user *AdminUser) (string, error) {
	now := s.now()
	claims := Claims{
		Version: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Authenticate resolves a bearer token to an active staff user.
func (s *Service) Authenticate(ctx context.Context, raw string) (*AdminUser, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var user AdminUser
	if err := s.db.WithContext(ctx).First(&user, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.TokenVersion != claims.Version {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrInactive
	}
	if !user.IsStaff {
		return nil, ErrNotStaff
	}
	return &user, nil
}

// Logout revokes every token issued to the user so far.
func (s *Service) Logout(ctx context.Context, user *AdminUser) error {
	err := s.db.WithContext(ctx).Model(&AdminUser{}).
		Where("id = ?", user.ID).
		Update("token_version", gorm.Expr("token_version + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	user.TokenVersion++
	return nil
}

// EnsureAdmin creates a superuser when no admin account exists yet.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&AdminUser{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if _, err := s.CreateUser(ctx, AdminUser{
		Username:    username,
		Email:       email,
		IsStaff:     true,
		IsSuperuser: true,
		IsActive:    true,
	}, password); err != nil {
		return false, err
	}
	s.logger.Info("Bootstrap admin created", zap.String("username", username))
	return true, nil
}

// CreateUser stores a user with a hashed password.
func (s *Service) CreateUser(ctx context.Context, user AdminUser, password string) (*AdminUser, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}
