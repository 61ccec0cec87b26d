package storage

import (
	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/services/logging"
	"go.uber.org/fx"
)

func ProvideStorageService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(NewS3Store(&cfg.Storage), &cfg.Storage, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideStorageService),
)
