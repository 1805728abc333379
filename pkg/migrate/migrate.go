// Package migrate wraps goose for the catalog, cart and plan schema.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where `create` writes new files, relative to the repo root.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Embedded exposes the compiled-in migrations rooted at the .sql files.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// source picks the on-disk dir when given, else the compiled-in set so the
// binaries can migrate from any working directory.
func source(dir string) (string, func()) {
	if dir == "" {
		goose.SetBaseFS(Embedded())
		return ".", func() { goose.SetBaseFS(nil) }
	}
	goose.SetBaseFS(nil)
	return dir, func() {}
}

func Run(ctx context.Context, db *sql.DB, dir string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	// sqlite mode never reaches here; it uses db.ApplySQLiteSchema.
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	path, reset := source(dir)
	defer reset()

	if err := goose.RunContext(ctx, command, db, path, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// CurrentVersion reports the applied goose version.
func CurrentVersion(db *sql.DB) (int64, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.GetDBVersion(db)
}

// MigrateToVersion walks up or down until the schema sits at targetVersion.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, targetVersion string) error {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	current, err := CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}
	path, reset := source(dir)
	defer reset()

	switch {
	case current < target:
		err = goose.UpToContext(ctx, db, path, target)
	case current > target:
		err = goose.DownToContext(ctx, db, path, target)
	}
	if err != nil {
		return fmt.Errorf("goose %d -> %d: %w", current, target, err)
	}
	return nil
}
