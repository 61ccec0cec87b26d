package database

import (
	"fmt"

	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/services/auth"
	"github.com/voxlane/voxlane/services/token"
	"github.com/voxlane/voxlane/services/user"
	"github.com/voxlane/voxlane/services/waitlist"
	"go.uber.org/fx"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// models is every table the application owns. Automigrate keeps the
// schema in step on boot; there is no separate migration tooling.
var models = []any{
	&user.User{},
	&token.RefreshToken{},
	&auth.PasswordResetToken{},
	&waitlist.Entry{},
}

func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.DSN)
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.Database.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres, mysql)", cfg.Database.Driver)
	}

	// TranslateError turns driver-specific unique violations into
	// gorm.ErrDuplicatedKey so services can map them to sentinels.
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to auto-migrate models: %w", err)
		}
	}

	return db, nil
}

var Module = fx.Options(
	fx.Provide(Open),
)
