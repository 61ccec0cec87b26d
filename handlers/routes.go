package handlers

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/middleware/authn"
	"github.com/voxlane/voxlane/middleware/ratelimit"
	"github.com/voxlane/voxlane/services/logging"
	"github.com/voxlane/voxlane/services/oauth"
	"github.com/voxlane/voxlane/services/token"
	"github.com/voxlane/voxlane/services/user"
)

// userKey rates authenticated traffic per account, not per address.
func userKey(c echo.Context) string {
	if id := authn.GetUserID(c); id != 0 {
		return fmt.Sprintf("user:%d", id)
	}
	return ratelimit.IPKeyGenerator(c)
}

func RegisterRoutes(
	e *echo.Echo,
	authHandler *AuthHandler,
	passwordHandler *PasswordHandler,
	videoHandler *VideoHandler,
	waitlistHandler *WaitlistHandler,
	healthHandler *HealthHandler,
	tokens *token.Service,
	users *user.Service,
	store ratelimit.Store,
	cfg *config.Config,
	logger *logging.Service,
) {
	requireAuth := authn.RequireAuth(tokens, users)

	userLimit := ratelimit.Middleware(&ratelimit.Config{
		Store:        store,
		Rate:         cfg.RateLimit.UserRate,
		Window:       cfg.RateLimit.UserWindow,
		KeyGenerator: userKey,
		Logger:       logger,
	})

	ipLimit := ratelimit.Middleware(&ratelimit.Config{
		Store:        store,
		Rate:         cfg.RateLimit.IPRate,
		Window:       cfg.RateLimit.IPWindow,
		KeyGenerator: ratelimit.IPKeyGenerator,
		Logger:       logger,
	})

	authGroup := e.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout, requireAuth)
	authGroup.GET("/me", authHandler.Me, requireAuth)
	authGroup.GET("/google", authHandler.OAuthRedirect(oauth.ProviderGoogle))
	authGroup.GET("/google/callback", authHandler.OAuthCallback(oauth.ProviderGoogle))
	authGroup.GET("/github", authHandler.OAuthRedirect(oauth.ProviderGitHub))
	authGroup.GET("/github/callback", authHandler.OAuthCallback(oauth.ProviderGitHub))

	passwordGroup := e.Group("/password")
	passwordGroup.POST("/forgot-password", passwordHandler.Forgot)
	passwordGroup.POST("/reset-password", passwordHandler.Reset)
	passwordGroup.POST("/change-password", passwordHandler.Change, requireAuth)

	videoGroup := e.Group("/video", requireAuth)
	videoGroup.PUT("/presigned", videoHandler.Presign, userLimit)
	videoGroup.GET("/transcribe", videoHandler.Transcription)

	e.POST("/waitlist", waitlistHandler.Add, ipLimit)
	e.GET("/health", healthHandler.Check)
}
