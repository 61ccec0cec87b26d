package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func ProvideEcho(srv *Server) *echo.Echo {
	return srv.Echo()
}

var Options = fx.Options(
	fx.Provide(New),
	fx.Provide(ProvideEcho),
	fx.Invoke(func(lc fx.Lifecycle, srv *Server) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						if srv.logger != nil {
							srv.logger.Fatal("server failed", zap.Error(err))
						}
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return srv.Shutdown(ctx)
			},
		})
	}),
)
