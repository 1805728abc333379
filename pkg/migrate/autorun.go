package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/procurematch-backend/pkg/config"
	"github.com/angelmondragon/procurematch-backend/pkg/db"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
)

// MaybeRunDev brings the schema up at boot, only in dev with
// PROCUREMATCH_AUTO_MIGRATE set. Other environments run cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	if cfg.FeatureFlags.UseSQLite {
		logg.Info(logg.WithField(ctx, "path", cfg.DB.SQLitePath), "applying sqlite schema (dev auto-run)")
		return db.ApplySQLiteSchema(ctx, client.DB())
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	if err := Run(ctx, sqlDB, "", "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	version, err := CurrentVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logg.Info(logg.WithField(ctx, "schema_version", version), "schema migrated (dev auto-run)")
	return nil
}
