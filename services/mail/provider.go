package mail

import (
	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/services/auth"
	"github.com/voxlane/voxlane/services/logging"
	"go.uber.org/fx"
)

// Mail is optional. Without an SMTP host the app runs and password
// reset requests are logged instead of mailed.
func ProvideMailService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	if cfg.Mail.Host == "" {
		if logger != nil {
			logger.Warn("mail service disabled, no SMTP host configured")
		}
		return nil, nil
	}
	return NewService(&cfg.Mail, logger)
}

func ProvidePasswordResetMailer(svc *Service) auth.MailService {
	if svc == nil {
		return nil
	}
	return svc
}

var Module = fx.Options(
	fx.Provide(ProvideMailService),
	fx.Provide(ProvidePasswordResetMailer),
)
