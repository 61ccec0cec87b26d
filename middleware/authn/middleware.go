package authn

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/voxlane/voxlane/services/token"
	"github.com/voxlane/voxlane/services/user"
)

const (
	// AccessCookie is the cookie carrying the access token. Tokens
	// travel in httpOnly cookies rather than Authorization headers.
	AccessCookie = "accessToken"

	UserKey   = "_authn_user"
	ClaimsKey = "_authn_claims"
)

// RequireAuth validates the access token cookie and re-fetches the
// account on every request, so deactivating a user invalidates their
// outstanding access tokens immediately rather than at expiry.
func RequireAuth(tokens *token.Service, users *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(AccessCookie)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}

			claims, err := tokens.Validate(cookie.Value, token.KindAccess)
			if err != nil {
				switch {
				case errors.Is(err, token.ErrExpiredToken):
					return echo.NewHTTPError(http.StatusUnauthorized, "Access token has expired")
				case errors.Is(err, token.ErrWrongKind):
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token type")
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid access token")
				}
			}

			account, err := users.GetActive(c.Request().Context(), claims.UserID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Account not found or inactive")
			}

			c.Set(UserKey, account)
			c.Set(ClaimsKey, claims)

			return next(c)
		}
	}
}

func GetUser(c echo.Context) *user.User {
	if u, ok := c.Get(UserKey).(*user.User); ok {
		return u
	}
	return nil
}

func GetUserID(c echo.Context) uint {
	if u := GetUser(c); u != nil {
		return u.ID
	}
	return 0
}

func GetClaims(c echo.Context) *token.Claims {
	if claims, ok := c.Get(ClaimsKey).(*token.Claims); ok {
		return claims
	}
	return nil
}
