package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/middleware/authn"
	"github.com/voxlane/voxlane/services/token"
)

const (
	refreshCookie    = "refreshToken"
	oauthStateCookie = "oauthState"
)

func setTokenCookies(c echo.Context, pair *token.TokenPair, cfg *config.JWTConfig) {
	c.SetCookie(&http.Cookie{
		Name:     authn.AccessCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(cfg.AccessExpiry.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	c.SetCookie(&http.Cookie{
		Name:     refreshCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(cfg.RefreshExpiry.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookies(c echo.Context, cfg *config.JWTConfig) {
	for _, name := range []string{authn.AccessCookie, refreshCookie} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func setStateCookie(c echo.Context, state string, cfg *config.JWTConfig) {
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearStateCookie(c echo.Context, cfg *config.JWTConfig) {
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
