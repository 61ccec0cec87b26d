package transcribe

import (
	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/services/logging"
	"github.com/voxlane/voxlane/services/storage"
	"go.uber.org/fx"
)

func ProvideTranscribeService(cfg *config.Config, store *storage.Service, logger *logging.Service) *Service {
	return NewService(NewAWSRunner(&cfg.Storage), store, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideTranscribeService),
)
