package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/voxlane/voxlane/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is deactivated")
)

// PasswordHasher is implemented by the auth service. Hashing enforces the
// password policy; verification returns ErrInvalidCredentials on mismatch.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hashedPassword, password string) error
}

type Service struct {
	db     *gorm.DB
	hasher PasswordHasher
	logger *logging.Service
}

func NewService(db *gorm.DB, hasher PasswordHasher, logger *logging.Service) *Service {
	return &Service{
		db:     db,
		hasher: hasher,
		logger: logger,
	}
}

// NormalizeEmail is the single email canonicalization point: rows are
// stored normalized, so the unique index enforces case-insensitivity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		if s.logger != nil {
			s.logger.Warn("registration rejected - email taken", zap.String("email", email))
		}
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := User{
		Email:        email,
		PasswordHash: hash,
		Role:         "user",
		Provider:     ProviderLocal,
		Active:       true,
	}

	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		// A concurrent registration can slip past the count; the unique
		// index is the real arbiter.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		if s.logger != nil {
			s.logger.Error("failed to create user", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user registered",
			zap.Uint("user_id", u.ID),
			zap.String("email", u.Email))
	}

	return &u, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)

	var u User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logger != nil {
				s.logger.Warn("login failed - unknown email", zap.String("email", email))
			}
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !u.HasPassword() {
		// OAuth-only account; password login is never valid for it.
		if s.logger != nil {
			s.logger.Warn("login failed - oauth-only account",
				zap.Uint("user_id", u.ID),
				zap.String("provider", u.Provider))
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.VerifyPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !u.Active {
		if s.logger != nil {
			s.logger.Warn("login failed - account deactivated", zap.Uint("user_id", u.ID))
		}
		return nil, ErrAccountInactive
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&u).Update("last_login_at", now).Error; err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to update last login time",
				zap.Error(err),
				zap.Uint("user_id", u.ID))
		}
	}
	u.LastLoginAt = &now

	return &u, nil
}

func (s *Service) GetByID(ctx context.Context, id uint) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &u, nil
}

// GetActive is the live account check performed on every authenticated
// request: a deactivated or deleted account invalidates all outstanding
// access tokens regardless of their signature expiry.
func (s *Service) GetActive(ctx context.Context, id uint) (*User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, ErrAccountInactive
	}
	return u, nil
}

// LinkOrCreateOAuthIdentity is the upsert-by-email join point for OAuth
// callbacks. An existing row is returned unchanged, provider fields
// included; a new row carries the provider identity and no password.
func (s *Service) LinkOrCreateOAuthIdentity(ctx context.Context, provider, providerID, email string) (*User, error) {
	email = NormalizeEmail(email)

	var u User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err == nil {
		if s.logger != nil {
			s.logger.Info("oauth login matched existing account",
				zap.Uint("user_id", u.ID),
				zap.String("provider", provider),
				zap.String("account_provider", u.Provider))
		}
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	u = User{
		Email:         email,
		Role:          "user",
		Provider:      provider,
		ProviderID:    providerID,
		Active:        true,
		EmailVerified: true,
	}

	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if s.logger != nil {
			s.logger.Error("failed to create oauth user", zap.Error(err), zap.String("provider", provider))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("oauth user created",
			zap.Uint("user_id", u.ID),
			zap.String("provider", provider))
	}

	return &u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id uint, firstName, lastName string) (*User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if firstName != "" {
		updates["first_name"] = firstName
	}
	if lastName != "" {
		updates["last_name"] = lastName
	}
	if len(updates) == 0 {
		return u, nil
	}

	if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return u, nil
}

func (s *Service) Deactivate(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	if s.logger != nil {
		s.logger.Info("account deactivated", zap.Uint("user_id", id))
	}
	return nil
}

func (s *Service) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
