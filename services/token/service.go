package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mileusna/useragent"
	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/services/logging"
	"github.com/voxlane/voxlane/services/user"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrWrongKind        = errors.New("token kind mismatch")
	ErrTokenNotFound    = errors.New("refresh token not found")
	ErrTokenRevoked     = errors.New("refresh token has been revoked")
	ErrTokenExpired     = errors.New("refresh token expired")
)

type Service struct {
	db     *gorm.DB
	config *config.Config
	logger *logging.Service
}

func NewService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		db:     db,
		config: cfg,
		logger: logger,
	}
}

func (s *Service) AccessExpiry() time.Duration {
	return s.config.JWT.AccessExpiry
}

func (s *Service) RefreshExpiry() time.Duration {
	return s.config.JWT.RefreshExpiry
}

func (s *Service) secretFor(kind string) []byte {
	if kind == KindRefresh {
		return []byte(s.config.JWT.RefreshSecret)
	}
	return []byte(s.config.JWT.AccessSecret)
}

func (s *Service) signToken(u *user.User, kind string, expiry time.Duration) (string, error) {
	now := time.Now()
	jti := uuid.New().String()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.config.JWT.Issuer,
			Subject:   fmt.Sprintf("%d", u.ID),
			Audience:  []string{s.config.JWT.Issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretFor(kind))
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to sign token", zap.Error(err), zap.String("kind", kind))
		}
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return tokenString, nil
}

// Issue mints an access/refresh pair and persists the refresh row before
// returning, so the refresh token is always retrievable by the next
// rotation call once the client holds it.
func (s *Service) Issue(ctx context.Context, u *user.User, client ClientInfo) (*TokenPair, error) {
	accessToken, err := s.signToken(u, KindAccess, s.config.JWT.AccessExpiry)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.signToken(u, KindRefresh, s.config.JWT.RefreshExpiry)
	if err != nil {
		return nil, err
	}

	row := RefreshToken{
		UserID:     u.ID,
		TokenHash:  hashToken(refreshToken),
		ExpiresAt:  time.Now().Add(s.config.JWT.RefreshExpiry),
		Revoked:    false,
		DeviceInfo: describeDevice(client),
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if s.logger != nil {
			s.logger.Error("failed to store refresh token", zap.Error(err), zap.Uint("user_id", u.ID))
		}
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("token pair issued",
			zap.Uint("user_id", u.ID),
			zap.Uint("refresh_token_id", row.ID),
			zap.Time("refresh_expires_at", row.ExpiresAt))
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Validate verifies signature and expiry against the secret for the
// expected kind and rejects kind mismatches. Callers authenticating a
// request must additionally re-fetch the user row; a signature-valid
// access token for a deactivated account is still dead.
func (s *Service) Validate(tokenString, expectedKind string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected algorithm: expected HS256, got %s", token.Method.Alg())
		}
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid algorithm family: %v", token.Header["alg"])
		}
		return s.secretFor(expectedKind), nil
	})

	if err != nil {
		if s.logger != nil {
			s.logger.Warn("token validation failed", zap.Error(err), zap.String("expected_kind", expectedKind))
		}

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Kind != expectedKind {
		if s.logger != nil {
			s.logger.Warn("token kind mismatch",
				zap.String("expected", expectedKind),
				zap.String("got", claims.Kind))
		}
		return nil, ErrWrongKind
	}

	return claims, nil
}

// Rotate swaps a refresh token for a fresh pair. The old row is marked
// revoked and the new row inserted in one transaction; a replayed
// (already-rotated) token therefore fails with ErrTokenRevoked rather
// than silently re-issuing.
func (s *Service) Rotate(ctx context.Context, refreshToken string, client ClientInfo) (*TokenPair, error) {
	claims, err := s.Validate(refreshToken, KindRefresh)
	if err != nil {
		return nil, err
	}

	var row RefreshToken
	err = s.db.WithContext(ctx).Where("token_hash = ?", hashToken(refreshToken)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logger != nil {
				s.logger.Warn("rotation failed - refresh token not found", zap.Uint("user_id", claims.UserID))
			}
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if row.Revoked {
		if s.logger != nil {
			s.logger.Warn("rotation failed - refresh token replay detected",
				zap.Uint("user_id", row.UserID),
				zap.Uint("token_id", row.ID))
		}
		return nil, ErrTokenRevoked
	}

	if time.Now().After(row.ExpiresAt) {
		if s.logger != nil {
			s.logger.Warn("rotation failed - refresh token expired",
				zap.Uint("user_id", row.UserID),
				zap.Time("expired_at", row.ExpiresAt))
		}
		return nil, ErrTokenExpired
	}

	// Mint the new pair from the live user row, not the old claims, so
	// role and email changes propagate and a deactivated or deleted
	// account cannot keep a rotation chain alive.
	var subject user.User
	if err := s.db.WithContext(ctx).First(&subject, row.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logger != nil {
				s.logger.Warn("rotation failed - user no longer exists", zap.Uint("user_id", row.UserID))
			}
			return nil, ErrTokenRevoked
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !subject.Active {
		if s.logger != nil {
			s.logger.Warn("rotation failed - account deactivated", zap.Uint("user_id", row.UserID))
		}
		return nil, ErrTokenRevoked
	}

	newAccessToken, err := s.signToken(&subject, KindAccess, s.config.JWT.AccessExpiry)
	if err != nil {
		return nil, err
	}
	newRefreshToken, err := s.signToken(&subject, KindRefresh, s.config.JWT.RefreshExpiry)
	if err != nil {
		return nil, err
	}

	newRow := RefreshToken{
		UserID:     row.UserID,
		TokenHash:  hashToken(newRefreshToken),
		ExpiresAt:  time.Now().Add(s.config.JWT.RefreshExpiry),
		Revoked:    false,
		DeviceInfo: describeDevice(client),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&RefreshToken{}).
			Where("id = ? AND revoked = ?", row.ID, false).
			Update("revoked", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Lost a race with a concurrent rotation of the same token.
			return ErrTokenRevoked
		}
		return tx.Create(&newRow).Error
	})
	if err != nil {
		if errors.Is(err, ErrTokenRevoked) {
			return nil, err
		}
		if s.logger != nil {
			s.logger.Error("rotation transaction failed", zap.Error(err), zap.Uint("user_id", row.UserID))
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("refresh token rotated",
			zap.Uint("user_id", row.UserID),
			zap.Uint("old_token_id", row.ID),
			zap.Uint("new_token_id", newRow.ID))
	}

	return &TokenPair{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// RevokeAll marks every refresh token of the user revoked. Idempotent;
// used on logout and after password resets.
func (s *Service) RevokeAll(ctx context.Context, userID uint) error {
	result := s.db.WithContext(ctx).Model(&RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	if result.Error != nil {
		if s.logger != nil {
			s.logger.Error("failed to revoke refresh tokens", zap.Error(result.Error), zap.Uint("user_id", userID))
		}
		return fmt.Errorf("failed to revoke refresh tokens: %w", result.Error)
	}

	if s.logger != nil {
		s.logger.Info("refresh tokens revoked",
			zap.Uint("user_id", userID),
			zap.Int64("count", result.RowsAffected))
	}
	return nil
}

func (s *Service) CleanupExpired() error {
	result := s.db.Where("expires_at < ?", time.Now()).Delete(&RefreshToken{})
	if result.Error != nil {
		return fmt.Errorf("failed to cleanup expired refresh tokens: %w", result.Error)
	}

	if s.logger != nil && result.RowsAffected > 0 {
		s.logger.Info("expired refresh tokens cleaned up", zap.Int64("count", result.RowsAffected))
	}
	return nil
}

func (s *Service) StartCleanupWorker() {
	go func() {
		ticker := time.NewTicker(s.config.JWT.CleanupEvery)
		defer ticker.Stop()

		for range ticker.C {
			if err := s.CleanupExpired(); err != nil && s.logger != nil {
				s.logger.Error("refresh token cleanup worker failed", zap.Error(err))
			}
		}
	}()
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func describeDevice(client ClientInfo) string {
	if client.UserAgent == "" {
		return client.IP
	}

	ua := useragent.Parse(client.UserAgent)
	desc := ua.Name
	if ua.Version != "" {
		desc += " " + ua.Version
	}
	if ua.OS != "" {
		desc += " / " + ua.OS
	}
	if client.IP != "" {
		desc += " (" + client.IP + ")"
	}
	return desc
}
