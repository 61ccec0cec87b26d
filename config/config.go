package config

import (
	"errors"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig       `envPrefix:"VOX_APP_"`
	Server    ServerConfig    `envPrefix:"VOX_SERVER_"`
	Log       LogConfig       `envPrefix:"VOX_LOG_"`
	Database  DatabaseConfig  `envPrefix:"VOX_DATABASE_"`
	JWT       JWTConfig       `envPrefix:"VOX_JWT_"`
	Auth      AuthConfig      `envPrefix:"VOX_AUTH_"`
	RateLimit RateLimitConfig `envPrefix:"VOX_RATELIMIT_"`
	Redis     RedisConfig     `envPrefix:"VOX_REDIS_"`
	OAuth     OAuthConfig     `envPrefix:"VOX_OAUTH_"`
	Storage   StorageConfig   `envPrefix:"VOX_STORAGE_"`
	Mail      MailConfig      `envPrefix:"VOX_MAIL_"`
	CORS      CORSConfig      `envPrefix:"VOX_CORS_"`
}

type AppConfig struct {
	Name        string `env:"NAME" envDefault:"Voxlane"`
	URL         string `env:"URL" envDefault:"http://localhost:8080"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
}

type ServerConfig struct {
	Host string `env:"HOST" envDefault:"localhost"`
	Port string `env:"PORT" envDefault:"8080"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"voxlane.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

// JWTConfig carries distinct signing secrets for access and refresh
// tokens so a leaked refresh secret cannot mint access tokens.
type JWTConfig struct {
	AccessSecret  string        `env:"ACCESS_SECRET"`
	RefreshSecret string        `env:"REFRESH_SECRET"`
	AccessExpiry  time.Duration `env:"ACCESS_EXPIRY" envDefault:"15m"`
	RefreshExpiry time.Duration `env:"REFRESH_EXPIRY" envDefault:"168h"`
	Issuer        string        `env:"ISSUER" envDefault:"voxlane"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"true"`
	CleanupEvery  time.Duration `env:"CLEANUP_EVERY" envDefault:"1h"`
}

type AuthConfig struct {
	MinLength        int           `env:"PASSWORD_MIN_LENGTH" envDefault:"8"`
	RequireUpper     bool          `env:"PASSWORD_REQUIRE_UPPER" envDefault:"true"`
	RequireLower     bool          `env:"PASSWORD_REQUIRE_LOWER" envDefault:"true"`
	RequireNumber    bool          `env:"PASSWORD_REQUIRE_NUMBER" envDefault:"true"`
	RequireSpecial   bool          `env:"PASSWORD_REQUIRE_SPECIAL" envDefault:"false"`
	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"10"`
	ResetTokenLength int           `env:"RESET_TOKEN_LENGTH" envDefault:"32"`
	ResetTokenExpiry time.Duration `env:"RESET_TOKEN_EXPIRY" envDefault:"1h"`
}

type RateLimitConfig struct {
	Store      string        `env:"STORE" envDefault:"memory"`
	UserRate   int           `env:"USER_RATE" envDefault:"10"`
	UserWindow time.Duration `env:"USER_WINDOW" envDefault:"10s"`
	IPRate     int           `env:"IP_RATE" envDefault:"10"`
	IPWindow   time.Duration `env:"IP_WINDOW" envDefault:"10s"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
}

type OAuthConfig struct {
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
}

type StorageConfig struct {
	Region          string        `env:"REGION" envDefault:"ap-south-1"`
	Bucket          string        `env:"BUCKET"`
	AccessKeyID     string        `env:"ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"SECRET_ACCESS_KEY"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
	PresignExpiry   time.Duration `env:"PRESIGN_EXPIRY" envDefault:"60s"`
}

type MailConfig struct {
	Host        string `env:"HOST"`
	Port        int    `env:"PORT" envDefault:"587"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	Encryption  string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress string `env:"FROM_ADDRESS"`
	FromName    string `env:"FROM_NAME" envDefault:"Voxlane"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return err
	}

	if c, ok := cfg.(*Config); ok {
		return validateJWTConfig(&c.JWT)
	}

	return nil
}

func validateJWTConfig(cfg *JWTConfig) error {
	if len(cfg.AccessSecret) < 32 {
		return errors.New("JWT access secret must be at least 32 characters long")
	}
	if len(cfg.RefreshSecret) < 32 {
		return errors.New("JWT refresh secret must be at least 32 characters long")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return errors.New("JWT access and refresh secrets must differ")
	}
	return nil
}
