package ratelimit

import (
	"github.com/redis/go-redis/v9"
	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/services/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Options = fx.Options(
	fx.Provide(ProvideStore),
)

func ProvideStore(cfg *config.Config, logger *logging.Service) Store {
	switch cfg.RateLimit.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logger.Info("rate limiting backed by redis", zap.String("addr", cfg.Redis.Addr))
		return NewRedisStore(client)
	default:
		logger.Info("rate limiting backed by in-process store")
		return NewMemoryStore()
	}
}
