package auth

import (
	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideAuthService(cfg *config.Config, db *gorm.DB, logger *logging.Service) *Service {
	return NewService(cfg, db, logger)
}

type OptionalMailService struct {
	fx.In
	MailService MailService `optional:"true"`
}

func WireMailService(authSvc *Service, opt OptionalMailService) {
	if authSvc != nil && opt.MailService != nil {
		authSvc.SetMailService(opt.MailService)
	}
}

var Options = fx.Options(
	fx.Provide(ProvideAuthService),
	fx.Invoke(WireMailService),
)
