package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/database"
	"github.com/voxlane/voxlane/handlers"
	"github.com/voxlane/voxlane/middleware/ratelimit"
	"github.com/voxlane/voxlane/server"
	"github.com/voxlane/voxlane/services/auth"
	"github.com/voxlane/voxlane/services/logging"
	"github.com/voxlane/voxlane/services/mail"
	"github.com/voxlane/voxlane/services/oauth"
	"github.com/voxlane/voxlane/services/storage"
	"github.com/voxlane/voxlane/services/token"
	"github.com/voxlane/voxlane/services/transcribe"
	"github.com/voxlane/voxlane/services/user"
	"github.com/voxlane/voxlane/services/waitlist"
	"go.uber.org/fx"
)

type App struct {
	fx *fx.App
}

// New assembles the whole application graph. Passing a nil config loads
// it from the environment; tests pass a fixture instead.
func New(customConfig *config.Config) *App {
	return &App{
		fx: fx.New(
			config.NewProvider(customConfig),
			logging.Module,
			database.Module,
			auth.Options,
			user.Options,
			token.Options,
			oauth.Options,
			mail.Module,
			storage.Options,
			transcribe.Options,
			waitlist.Options,
			ratelimit.Options,
			server.Options,
			handlers.Options,
			fx.NopLogger,
		),
	}
}

func (a *App) Start(ctx context.Context) error {
	return a.fx.Start(ctx)
}

func (a *App) Stop(ctx context.Context) error {
	return a.fx.Stop(ctx)
}

// Run starts the app and blocks until an interrupt or termination
// signal arrives, then shuts down gracefully.
func (a *App) Run() {
	if err := a.Start(context.Background()); err != nil {
		log.Fatalf("failed to start application: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Stop(ctx); err != nil {
		log.Printf("failed to stop application gracefully: %v", err)
	}
}
