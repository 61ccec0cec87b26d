package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxlane/voxlane/services/user"
	"github.com/voxlane/voxlane/testutils"
)

func testUser() *user.User {
	return &user.User{
		ID:     1,
		Email:  "test@example.com",
		Role:   "user",
		Active: true,
	}
}

func setupService(t *testing.T) *Service {
	db := testutils.SetupTestDB(t, &RefreshToken{}, &user.User{})
	require.NoError(t, db.Create(testUser()).Error)
	return NewService(db, testutils.GetTestConfig(), nil)
}

func TestService_Issue(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, testUser(), ClientInfo{IP: "10.0.0.1", UserAgent: "Mozilla/5.0 (Macintosh) Chrome/120.0"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	t.Run("refresh row persisted before return", func(t *testing.T) {
		var row RefreshToken
		err := svc.db.Where("token_hash = ?", hashToken(pair.RefreshToken)).First(&row).Error
		require.NoError(t, err)
		assert.Equal(t, uint(1), row.UserID)
		assert.False(t, row.Revoked)
		assert.WithinDuration(t, time.Now().Add(svc.RefreshExpiry()), row.ExpiresAt, 5*time.Second)
		assert.Contains(t, row.DeviceInfo, "Chrome")
	})

	t.Run("access token carries identity claims", func(t *testing.T) {
		claims, err := svc.Validate(pair.AccessToken, KindAccess)
		require.NoError(t, err)
		assert.Equal(t, uint(1), claims.UserID)
		assert.Equal(t, "test@example.com", claims.Email)
		assert.Equal(t, "user", claims.Role)
		assert.Equal(t, KindAccess, claims.Kind)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("concurrent logins both create valid sessions", func(t *testing.T) {
		first, err := svc.Issue(ctx, testUser(), ClientInfo{})
		require.NoError(t, err)
		second, err := svc.Issue(ctx, testUser(), ClientInfo{})
		require.NoError(t, err)

		_, err = svc.Rotate(ctx, first.RefreshToken, ClientInfo{})
		assert.NoError(t, err)
		_, err = svc.Rotate(ctx, second.RefreshToken, ClientInfo{})
		assert.NoError(t, err)
	})
}

func TestService_Validate_KindMismatch(t *testing.T) {
	svc := setupService(t)
	pair, err := svc.Issue(context.Background(), testUser(), ClientInfo{})
	require.NoError(t, err)

	t.Run("refresh token rejected as access", func(t *testing.T) {
		_, err := svc.Validate(pair.RefreshToken, KindAccess)
		require.Error(t, err)
		// Distinct secrets mean the signature check fails before the
		// kind claim is even reached.
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("access token rejected as refresh", func(t *testing.T) {
		_, err := svc.Validate(pair.AccessToken, KindRefresh)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("kind claim checked even under a shared secret", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.JWT.RefreshSecret = cfg.JWT.AccessSecret
		shared := NewService(testutils.SetupTestDB(t, &RefreshToken{}), cfg, nil)

		pair, err := shared.Issue(context.Background(), testUser(), ClientInfo{})
		require.NoError(t, err)

		_, err = shared.Validate(pair.RefreshToken, KindAccess)
		assert.ErrorIs(t, err, ErrWrongKind)
	})
}

func TestService_Validate_Errors(t *testing.T) {
	svc := setupService(t)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Validate("not-a-jwt", KindAccess)
		assert.ErrorIs(t, err, ErrMalformedToken)
	})

	t.Run("expired token", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.JWT.AccessExpiry = -time.Minute
		expired := NewService(testutils.SetupTestDB(t, &RefreshToken{}), cfg, nil)

		tokenString, err := expired.signToken(testUser(), KindAccess, cfg.JWT.AccessExpiry)
		require.NoError(t, err)

		_, err = svc.Validate(tokenString, KindAccess)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("tampered signature", func(t *testing.T) {
		pair, err := svc.Issue(context.Background(), testUser(), ClientInfo{})
		require.NoError(t, err)

		_, err = svc.Validate(pair.AccessToken+"x", KindAccess)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}

func TestService_Rotate(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, testUser(), ClientInfo{})
	require.NoError(t, err)

	newPair, err := svc.Rotate(ctx, pair.RefreshToken, ClientInfo{})
	require.NoError(t, err)
	assert.NotEmpty(t, newPair.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	t.Run("old row revoked, new row active", func(t *testing.T) {
		var oldRow, newRow RefreshToken
		require.NoError(t, svc.db.Where("token_hash = ?", hashToken(pair.RefreshToken)).First(&oldRow).Error)
		require.NoError(t, svc.db.Where("token_hash = ?", hashToken(newPair.RefreshToken)).First(&newRow).Error)
		assert.True(t, oldRow.Revoked)
		assert.False(t, newRow.Revoked)
	})

	t.Run("rotation is one-shot - replay fails", func(t *testing.T) {
		_, err := svc.Rotate(ctx, pair.RefreshToken, ClientInfo{})
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})

	t.Run("rotated token chain stays usable", func(t *testing.T) {
		third, err := svc.Rotate(ctx, newPair.RefreshToken, ClientInfo{})
		require.NoError(t, err)
		assert.NotEmpty(t, third.RefreshToken)
	})
}

func TestService_Rotate_MintsFromLiveUser(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, testUser(), ClientInfo{})
	require.NoError(t, err)

	require.NoError(t, svc.db.Model(&user.User{}).Where("id = ?", 1).
		Updates(map[string]any{"role": "admin", "email": "renamed@example.com"}).Error)

	newPair, err := svc.Rotate(ctx, pair.RefreshToken, ClientInfo{})
	require.NoError(t, err)

	claims, err := svc.Validate(newPair.AccessToken, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "renamed@example.com", claims.Email)
}

func TestService_Rotate_DeadAccounts(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	t.Run("deactivated account cannot extend its session", func(t *testing.T) {
		pair, err := svc.Issue(ctx, testUser(), ClientInfo{})
		require.NoError(t, err)

		require.NoError(t, svc.db.Model(&user.User{}).Where("id = ?", 1).
			Update("active", false).Error)

		_, err = svc.Rotate(ctx, pair.RefreshToken, ClientInfo{})
		assert.ErrorIs(t, err, ErrTokenRevoked)

		require.NoError(t, svc.db.Model(&user.User{}).Where("id = ?", 1).
			Update("active", true).Error)
	})

	t.Run("deleted account cannot rotate", func(t *testing.T) {
		pair, err := svc.Issue(ctx, testUser(), ClientInfo{})
		require.NoError(t, err)

		require.NoError(t, svc.db.Delete(&user.User{}, 1).Error)

		_, err = svc.Rotate(ctx, pair.RefreshToken, ClientInfo{})
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})
}

func TestService_Rotate_Errors(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	t.Run("unknown but well-signed token", func(t *testing.T) {
		tokenString, err := svc.signToken(testUser(), KindRefresh, time.Hour)
		require.NoError(t, err)

		_, err = svc.Rotate(ctx, tokenString, ClientInfo{})
		assert.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("access token cannot rotate", func(t *testing.T) {
		pair, err := svc.Issue(ctx, testUser(), ClientInfo{})
		require.NoError(t, err)

		_, err = svc.Rotate(ctx, pair.AccessToken, ClientInfo{})
		require.Error(t, err)
	})

	t.Run("expired row", func(t *testing.T) {
		pair, err := svc.Issue(ctx, testUser(), ClientInfo{})
		require.NoError(t, err)

		err = svc.db.Model(&RefreshToken{}).
			Where("token_hash = ?", hashToken(pair.RefreshToken)).
			Update("expires_at", time.Now().Add(-time.Minute)).Error
		require.NoError(t, err)

		_, err = svc.Rotate(ctx, pair.RefreshToken, ClientInfo{})
		assert.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestService_RevokeAll(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, testUser(), ClientInfo{})
	require.NoError(t, err)
	second, err := svc.Issue(ctx, testUser(), ClientInfo{})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAll(ctx, 1))

	_, err = svc.Rotate(ctx, first.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = svc.Rotate(ctx, second.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, ErrTokenRevoked)

	t.Run("idempotent", func(t *testing.T) {
		assert.NoError(t, svc.RevokeAll(ctx, 1))
		assert.NoError(t, svc.RevokeAll(ctx, 999))
	})
}

func TestService_CleanupExpired(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, testUser(), ClientInfo{})
	require.NoError(t, err)

	err = svc.db.Model(&RefreshToken{}).
		Where("token_hash = ?", hashToken(pair.RefreshToken)).
		Update("expires_at", time.Now().Add(-time.Hour)).Error
	require.NoError(t, err)

	require.NoError(t, svc.CleanupExpired())

	var count int64
	svc.db.Model(&RefreshToken{}).Count(&count)
	assert.Equal(t, int64(0), count)
}
