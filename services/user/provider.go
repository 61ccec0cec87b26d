package user

import (
	"github.com/voxlane/voxlane/services/auth"
	"github.com/voxlane/voxlane/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideUserService(db *gorm.DB, authSvc *auth.Service, logger *logging.Service) *Service {
	return NewService(db, authSvc, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideUserService),
)
