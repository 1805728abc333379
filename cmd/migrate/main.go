package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/procurematch-backend/pkg/config"
	"github.com/angelmondragon/procurematch-backend/pkg/db"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
	"github.com/angelmondragon/procurematch-backend/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", "", "migrations directory; empty uses the compiled-in set ("+migrate.DefaultDir+" for create/validate)")
	flag.StringVar(&opts.name, "name", "", "migration name, required by create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS), required by version")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.cmd, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	// create and validate only touch files; no config or database needed.
	fileDir := opts.dir
	if fileDir == "" {
		fileDir = migrate.DefaultDir
	}
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return errors.New("-name is required")
		}
		path, err := migrate.CreateSQLMigration(fileDir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(fileDir); err != nil {
			return err
		}
		fmt.Println("migrations ok:", fileDir)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	defer logg.Close()

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer client.Close()

	// goose files are postgres DDL; sqlite gets the embedded schema instead.
	if cfg.FeatureFlags.UseSQLite {
		if opts.cmd != "up" {
			return errors.New("sqlite only supports -cmd=up")
		}
		if err := db.ApplySQLiteSchema(ctx, client.DB()); err != nil {
			return err
		}
		logg.Info(ctx, "migrate.sqlite_schema_applied")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	if err := gooseCommand(ctx, sqlDB, opts); err != nil {
		return err
	}

	if v, err := migrate.CurrentVersion(sqlDB); err == nil {
		logg.Info(logg.WithField(ctx, "schema_version", v), "migrate.done")
	}
	return nil
}

func gooseCommand(ctx context.Context, sqlDB *sql.DB, opts options) error {
	switch opts.cmd {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, opts.dir, opts.cmd)
	case "version":
		if opts.version == "" {
			return errors.New("-version is required")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
	default:
		return fmt.Errorf("unknown command %q", opts.cmd)
	}
}
