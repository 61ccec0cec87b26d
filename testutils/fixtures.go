package testutils

import (
	"time"

	"github.com/voxlane/voxlane/config"
	"golang.org/x/crypto/bcrypt"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "Voxlane Test",
			URL:         "http://localhost:8080",
			FrontendURL: "http://localhost:3000",
		},
		JWT: config.JWTConfig{
			AccessSecret:  "test-access-secret-0123456789abcdef",
			RefreshSecret: "test-refresh-secret-0123456789abcde",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 7 * 24 * time.Hour,
			Issuer:        "voxlane-test",
			CookieSecure:  false,
		},
		Auth: config.AuthConfig{
			MinLength:        8,
			RequireUpper:     true,
			RequireLower:     true,
			RequireNumber:    true,
			RequireSpecial:   false,
			BcryptCost:       bcrypt.MinCost,
			ResetTokenLength: 32,
			ResetTokenExpiry: time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			Store:      "memory",
			UserRate:   10,
			UserWindow: 10 * time.Second,
			IPRate:     10,
			IPWindow:   10 * time.Second,
		},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		Storage: config.StorageConfig{
			Region:         "ap-south-1",
			Bucket:         "voxlane-test",
			MaxUploadBytes: 52428800,
			PresignExpiry:  60 * time.Second,
		},
	}
}

var TestPasswords = struct {
	Valid    string
	TooShort string
	NoUpper  string
	NoNumber string
}{
	Valid:    "Password123",
	TooShort: "Pass1",
	NoUpper:  "password123",
	NoNumber: "Password",
}
