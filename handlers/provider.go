package handlers

import (
	"go.uber.org/fx"
)

var Options = fx.Options(
	fx.Provide(NewAuthHandler),
	fx.Provide(NewPasswordHandler),
	fx.Provide(NewVideoHandler),
	fx.Provide(NewWaitlistHandler),
	fx.Provide(NewHealthHandler),
	fx.Invoke(RegisterRoutes),
)
