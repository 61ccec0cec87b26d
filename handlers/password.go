package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/middleware/authn"
	"github.com/voxlane/voxlane/services/auth"
	"github.com/voxlane/voxlane/services/logging"
	"github.com/voxlane/voxlane/services/token"
	"github.com/voxlane/voxlane/services/user"
	"go.uber.org/zap"
)

// forgotPasswordResponse is identical whether or not the account
// exists, so the endpoint cannot be used to enumerate emails.
const forgotPasswordResponse = "If an account exists for that email, a password reset link has been sent"

type PasswordHandler struct {
	auth   *auth.Service
	users  *user.Service
	tokens *token.Service
	config *config.Config
	logger *logging.Service
}

func NewPasswordHandler(authSvc *auth.Service, users *user.Service, tokens *token.Service, cfg *config.Config, logger *logging.Service) *PasswordHandler {
	return &PasswordHandler{
		auth:   authSvc,
		users:  users,
		tokens: tokens,
		config: cfg,
		logger: logger,
	}
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *PasswordHandler) Forgot(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, http.StatusBadRequest, "Email is required")
	}

	account, err := h.users.GetByEmail(c.Request().Context(), req.Email)
	if err == nil && account.Active {
		if err := h.auth.RequestPasswordReset(c.Request().Context(), account.ID, account.Email); err != nil {
			if h.logger != nil {
				h.logger.Error("password reset request failed",
					zap.Error(err),
					zap.Uint("user_id", account.ID))
			}
		}
	} else if err != nil && !errors.Is(err, user.ErrUserNotFound) {
		if h.logger != nil {
			h.logger.Error("password reset lookup failed", zap.Error(err))
		}
	}

	return respondMessage(c, http.StatusOK, forgotPasswordResponse)
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

func (h *PasswordHandler) Reset(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, http.StatusBadRequest, "Token and new password are required")
	}

	resetToken, err := h.auth.ResetPassword(c.Request().Context(), req.Token, req.NewPassword)
	if err != nil {
		var policyErr *auth.PasswordPolicyError
		switch {
		case errors.Is(err, auth.ErrResetTokenInvalid),
			errors.Is(err, auth.ErrResetTokenExpired),
			errors.Is(err, auth.ErrResetTokenUsed):
			return respondError(c, http.StatusBadRequest, "Invalid or expired reset token")
		case errors.As(err, &policyErr):
			return respondError(c, http.StatusBadRequest, policyErr.Error())
		default:
			if h.logger != nil {
				h.logger.Error("password reset failed", zap.Error(err))
			}
			return respondError(c, http.StatusInternalServerError, "Error resetting password")
		}
	}

	// A reset means the credential may have been compromised, so every
	// session is ended.
	if err := h.tokens.RevokeAll(c.Request().Context(), resetToken.UserID); err != nil {
		if h.logger != nil {
			h.logger.Error("failed to revoke sessions after password reset",
				zap.Error(err),
				zap.Uint("user_id", resetToken.UserID))
		}
	}

	return respondMessage(c, http.StatusOK, "Password has been reset")
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

func (h *PasswordHandler) Change(c echo.Context) error {
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, http.StatusBadRequest, "Current and new password are required")
	}

	account := authn.GetUser(c)
	if account == nil {
		return respondError(c, http.StatusUnauthorized, "Authentication required")
	}

	err := h.auth.ChangePassword(c.Request().Context(), account.ID, account.PasswordHash, req.CurrentPassword, req.NewPassword)
	if err != nil {
		var policyErr *auth.PasswordPolicyError
		switch {
		case errors.Is(err, auth.ErrWrongCurrentPassword):
			return respondError(c, http.StatusBadRequest, "Current password is incorrect")
		case errors.As(err, &policyErr):
			return respondError(c, http.StatusBadRequest, policyErr.Error())
		default:
			if h.logger != nil {
				h.logger.Error("password change failed",
					zap.Error(err),
					zap.Uint("user_id", account.ID))
			}
			return respondError(c, http.StatusInternalServerError, "Error changing password")
		}
	}

	return respondMessage(c, http.StatusOK, "Password has been changed")
}
