package waitlist

import (
	"github.com/voxlane/voxlane/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideWaitlistService(db *gorm.DB, logger *logging.Service) *Service {
	return NewService(db, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideWaitlistService),
)
