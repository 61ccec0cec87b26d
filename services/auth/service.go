package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/services/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrPasswordHashingFailed = errors.New("failed to hash password")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrWrongCurrentPassword  = errors.New("current password is incorrect")
	ErrResetTokenInvalid     = errors.New("invalid or expired password reset token")
	ErrResetTokenExpired     = errors.New("password reset token has expired")
	ErrResetTokenUsed        = errors.New("password reset token has already been used")
)

type MailService interface {
	SendPasswordReset(to, resetURL string, expiry time.Duration) error
}

type Service struct {
	config      *config.Config
	db          *gorm.DB
	mailService MailService
	logger      *logging.Service
}

func NewService(cfg *config.Config, db *gorm.DB, logger *logging.Service) *Service {
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		config: cfg,
		db:     db,
		logger: logger,
	}
}

func (s *Service) SetMailService(mailService MailService) {
	s.mailService = mailService
}

// PasswordPolicyError carries the human-readable reason a candidate
// password was rejected. Callers treat it as client error, not failure.
type PasswordPolicyError struct {
	Reason string
}

func (e *PasswordPolicyError) Error() string {
	return e.Reason
}

func (s *Service) ValidatePassword(password string) error {
	if len(password) < s.config.Auth.MinLength {
		return &PasswordPolicyError{Reason: fmt.Sprintf("password must be at least %d characters", s.config.Auth.MinLength)}
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	var missing []string

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if s.config.Auth.RequireUpper && !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if s.config.Auth.RequireLower && !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if s.config.Auth.RequireNumber && !hasNumber {
		missing = append(missing, "one number")
	}
	if s.config.Auth.RequireSpecial && !hasSpecial {
		missing = append(missing, "one special character")
	}

	if len(missing) > 0 {
		return &PasswordPolicyError{Reason: "password must contain at least " + strings.Join(missing, ", ")}
	}

	return nil
}

func (s *Service) HashPassword(password string) (string, error) {
	if err := s.ValidatePassword(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.Auth.BcryptCost)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("password hashing failed", zap.Error(err))
		}
		return "", ErrPasswordHashingFailed
	}

	return string(hash), nil
}

func (s *Service) VerifyPassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *Service) generateSecureToken() (string, error) {
	bytes := make([]byte, s.config.Auth.ResetTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// CreatePasswordResetToken replaces any outstanding reset tokens for the
// user with a fresh single-use token.
func (s *Service) CreatePasswordResetToken(ctx context.Context, userID uint, email string) (*PasswordResetToken, error) {
	token, err := s.generateSecureToken()
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to generate password reset token", zap.Error(err))
		}
		return nil, err
	}

	resetToken := &PasswordResetToken{
		UserID:    userID,
		Email:     email,
		Token:     token,
		ExpiresAt: time.Now().Add(s.config.Auth.ResetTokenExpiry),
		Used:      false,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(resetToken).Error
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to store password reset token", zap.Error(err), zap.Uint("user_id", userID))
		}
		return nil, fmt.Errorf("failed to create password reset token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("password reset token created",
			zap.Uint("user_id", userID),
			zap.Time("expires_at", resetToken.ExpiresAt))
	}

	return resetToken, nil
}

func (s *Service) ValidatePasswordResetToken(ctx context.Context, token string) (*PasswordResetToken, error) {
	var resetToken PasswordResetToken
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&resetToken).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logger != nil {
				s.logger.Warn("invalid password reset token attempted")
			}
			return nil, ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("failed to validate password reset token: %w", err)
	}

	if resetToken.Used {
		if s.logger != nil {
			s.logger.Warn("already used password reset token attempted", zap.Uint("user_id", resetToken.UserID))
		}
		return nil, ErrResetTokenUsed
	}

	if time.Now().After(resetToken.ExpiresAt) {
		if s.logger != nil {
			s.logger.Warn("expired password reset token attempted",
				zap.Uint("user_id", resetToken.UserID),
				zap.Time("expired_at", resetToken.ExpiresAt))
		}
		return nil, ErrResetTokenExpired
	}

	return &resetToken, nil
}

// ResetPassword consumes the token and installs the new password hash in
// one transaction so a valid token can never be spent without the
// password actually changing.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (*PasswordResetToken, error) {
	resetToken, err := s.ValidatePasswordResetToken(ctx, token)
	if err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&PasswordResetToken{}).
			Where("id = ? AND used = ?", resetToken.ID, false).
			Updates(map[string]any{"used": true, "used_at": now})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrResetTokenUsed
		}

		return tx.Table("users").Where("id = ?", resetToken.UserID).Update("password_hash", hash).Error
	})
	if err != nil {
		if errors.Is(err, ErrResetTokenUsed) {
			return nil, err
		}
		if s.logger != nil {
			s.logger.Error("password reset failed", zap.Error(err), zap.Uint("user_id", resetToken.UserID))
		}
		return nil, fmt.Errorf("failed to reset password: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("password reset completed", zap.Uint("user_id", resetToken.UserID))
	}

	resetToken.Used = true
	resetToken.UsedAt = &now
	return resetToken, nil
}

// RequestPasswordReset creates a token and emails the reset link. The
// caller decides whether the account exists; this is never reached for
// unknown emails, keeping the enumeration-safe response in the handler.
func (s *Service) RequestPasswordReset(ctx context.Context, userID uint, email string) error {
	resetToken, err := s.CreatePasswordResetToken(ctx, userID, email)
	if err != nil {
		return err
	}

	if s.mailService == nil {
		if s.logger != nil {
			s.logger.Warn("password reset token created but mail service not configured",
				zap.Uint("user_id", userID))
		}
		return nil
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.config.App.FrontendURL, resetToken.Token)
	if err := s.mailService.SendPasswordReset(email, resetURL, s.config.Auth.ResetTokenExpiry); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to send password reset email", zap.Error(err), zap.Uint("user_id", userID))
		}
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uint, currentHash, currentPassword, newPassword string) error {
	if err := s.VerifyPassword(currentHash, currentPassword); err != nil {
		if s.logger != nil {
			s.logger.Warn("change password rejected - wrong current password", zap.Uint("user_id", userID))
		}
		return ErrWrongCurrentPassword
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Table("users").Where("id = ?", userID).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("password changed", zap.Uint("user_id", userID))
	}
	return nil
}

func (s *Service) CleanupExpiredTokens() error {
	result := s.db.Where("expires_at < ?", time.Now()).Delete(&PasswordResetToken{})
	if result.Error != nil {
		return fmt.Errorf("failed to cleanup expired password reset tokens: %w", result.Error)
	}

	if s.logger != nil && result.RowsAffected > 0 {
		s.logger.Info("expired password reset tokens cleaned up", zap.Int64("count", result.RowsAffected))
	}
	return nil
}
