package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/middleware/authn"
	"github.com/voxlane/voxlane/services/auth"
	"github.com/voxlane/voxlane/services/logging"
	"github.com/voxlane/voxlane/services/oauth"
	"github.com/voxlane/voxlane/services/token"
	"github.com/voxlane/voxlane/services/user"
	"go.uber.org/zap"
)

var validate = validator.New()

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return validate.Struct(req)
}

type AuthHandler struct {
	users  *user.Service
	tokens *token.Service
	oauth  *oauth.Service
	config *config.Config
	logger *logging.Service
}

func NewAuthHandler(users *user.Service, tokens *token.Service, oauthSvc *oauth.Service, cfg *config.Config, logger *logging.Service) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		oauth:  oauthSvc,
		config: cfg,
		logger: logger,
	}
}

func (h *AuthHandler) clientInfo(c echo.Context) token.ClientInfo {
	return token.ClientInfo{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, http.StatusBadRequest, "Email and password are required")
	}

	account, err := h.users.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		var policyErr *auth.PasswordPolicyError
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			return respondError(c, http.StatusConflict, "User already exists")
		case errors.As(err, &policyErr):
			return respondError(c, http.StatusBadRequest, policyErr.Error())
		default:
			if h.logger != nil {
				h.logger.Error("registration failed", zap.Error(err))
			}
			return respondError(c, http.StatusInternalServerError, "Error creating user")
		}
	}

	pair, err := h.tokens.Issue(c.Request().Context(), account, h.clientInfo(c))
	if err != nil {
		if h.logger != nil {
			h.logger.Error("token issue failed after registration",
				zap.Error(err),
				zap.Uint("user_id", account.ID))
		}
		return respondError(c, http.StatusInternalServerError, "Error creating user")
	}

	setTokenCookies(c, pair, &h.config.JWT)
	return respondSuccess(c, http.StatusCreated, echo.Map{"user": account})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, http.StatusBadRequest, "Email and password are required")
	}

	account, err := h.users.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCredentials), errors.Is(err, user.ErrAccountInactive):
			return respondError(c, http.StatusUnauthorized, "Invalid credentials")
		default:
			if h.logger != nil {
				h.logger.Error("login failed", zap.Error(err))
			}
			return respondError(c, http.StatusInternalServerError, "Error logging in")
		}
	}

	pair, err := h.tokens.Issue(c.Request().Context(), account, h.clientInfo(c))
	if err != nil {
		if h.logger != nil {
			h.logger.Error("token issue failed", zap.Error(err), zap.Uint("user_id", account.ID))
		}
		return respondError(c, http.StatusInternalServerError, "Error logging in")
	}

	setTokenCookies(c, pair, &h.config.JWT)
	return respondSuccess(c, http.StatusOK, echo.Map{"user": account})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookie)
	if err != nil || cookie.Value == "" {
		return respondError(c, http.StatusUnauthorized, "Refresh token required")
	}

	pair, err := h.tokens.Rotate(c.Request().Context(), cookie.Value, h.clientInfo(c))
	if err != nil {
		switch {
		case errors.Is(err, token.ErrTokenRevoked),
			errors.Is(err, token.ErrTokenExpired),
			errors.Is(err, token.ErrTokenNotFound),
			errors.Is(err, token.ErrExpiredToken),
			errors.Is(err, token.ErrInvalidToken),
			errors.Is(err, token.ErrMalformedToken),
			errors.Is(err, token.ErrInvalidSignature),
			errors.Is(err, token.ErrWrongKind):
			clearTokenCookies(c, &h.config.JWT)
			return respondError(c, http.StatusUnauthorized, "Invalid refresh token")
		default:
			if h.logger != nil {
				h.logger.Error("token rotation failed", zap.Error(err))
			}
			return respondError(c, http.StatusInternalServerError, "Error refreshing tokens")
		}
	}

	setTokenCookies(c, pair, &h.config.JWT)
	return respondMessage(c, http.StatusOK, "Tokens refreshed")
}

// Logout revokes the user's refresh tokens. Outstanding access tokens
// stay valid until their natural expiry.
func (h *AuthHandler) Logout(c echo.Context) error {
	userID := authn.GetUserID(c)

	if err := h.tokens.RevokeAll(c.Request().Context(), userID); err != nil {
		if h.logger != nil {
			h.logger.Error("logout revocation failed", zap.Error(err), zap.Uint("user_id", userID))
		}
		return respondError(c, http.StatusInternalServerError, "Error logging out")
	}

	clearTokenCookies(c, &h.config.JWT)
	return respondMessage(c, http.StatusOK, "Logged out")
}

func (h *AuthHandler) Me(c echo.Context) error {
	account := authn.GetUser(c)
	if account == nil {
		return respondError(c, http.StatusNotFound, "User not found")
	}
	return respondSuccess(c, http.StatusOK, echo.Map{"user": account})
}

// OAuthRedirect starts the authorization flow. The state value rides in
// a short-lived cookie and is checked again on the callback.
func (h *AuthHandler) OAuthRedirect(provider string) echo.HandlerFunc {
	return func(c echo.Context) error {
		state, err := h.oauth.GenerateState()
		if err != nil {
			if h.logger != nil {
				h.logger.Error("failed to generate oauth state", zap.Error(err))
			}
			return h.redirectWithError(c, "oauth_failed")
		}

		authURL, err := h.oauth.AuthCodeURL(provider, state)
		if err != nil {
			return h.redirectWithError(c, "unknown_provider")
		}

		setStateCookie(c, state, &h.config.JWT)
		return c.Redirect(http.StatusTemporaryRedirect, authURL)
	}
}

func (h *AuthHandler) OAuthCallback(provider string) echo.HandlerFunc {
	return func(c echo.Context) error {
		defer clearStateCookie(c, &h.config.JWT)

		stateCookie, err := c.Cookie(oauthStateCookie)
		if err != nil || stateCookie.Value == "" || stateCookie.Value != c.QueryParam("state") {
			if h.logger != nil {
				h.logger.Warn("oauth state mismatch", zap.String("provider", provider))
			}
			return h.redirectWithError(c, "invalid_state")
		}

		code := c.QueryParam("code")
		if code == "" {
			return h.redirectWithError(c, "missing_code")
		}

		profile, err := h.oauth.Exchange(c.Request().Context(), provider, code)
		if err != nil {
			if h.logger != nil {
				h.logger.Error("oauth exchange failed",
					zap.Error(err),
					zap.String("provider", provider))
			}
			return h.redirectWithError(c, "oauth_failed")
		}

		account, err := h.users.LinkOrCreateOAuthIdentity(c.Request().Context(), profile.Provider, profile.ProviderID, profile.Email)
		if err != nil {
			if h.logger != nil {
				h.logger.Error("oauth identity linking failed", zap.Error(err))
			}
			return h.redirectWithError(c, "oauth_failed")
		}

		if !account.Active {
			return h.redirectWithError(c, "account_inactive")
		}

		pair, err := h.tokens.Issue(c.Request().Context(), account, h.clientInfo(c))
		if err != nil {
			if h.logger != nil {
				h.logger.Error("token issue failed after oauth login",
					zap.Error(err),
					zap.Uint("user_id", account.ID))
			}
			return h.redirectWithError(c, "oauth_failed")
		}

		setTokenCookies(c, pair, &h.config.JWT)
		return c.Redirect(http.StatusTemporaryRedirect, h.config.App.FrontendURL)
	}
}

func (h *AuthHandler) redirectWithError(c echo.Context, reason string) error {
	return c.Redirect(http.StatusTemporaryRedirect, h.config.App.FrontendURL+"/signin?error="+reason)
}
