package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/procurematch-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate dir: %v", err)
	}
}

func TestMigrationsContainSchemas(t *testing.T) {
	cases := map[string][]string{
		"create_catalog_tables": {
			"CREATE TABLE IF NOT EXISTS suppliers",
			"CREATE TABLE IF NOT EXISTS brands",
			"CREATE TABLE IF NOT EXISTS offers",
			"CREATE INDEX IF NOT EXISTS idx_offers_active_category",
		},
		"create_buyer_tables": {
			"CREATE TABLE IF NOT EXISTS buyer_references",
			"CREATE TABLE IF NOT EXISTS carts",
			"CREATE TABLE IF NOT EXISTS cart_intents",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_buyer",
		},
		"create_plan_and_order_tables": {
			"CREATE TABLE IF NOT EXISTS plan_snapshots",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_plan_snapshots_buyer",
			"CREATE TABLE IF NOT EXISTS purchase_orders",
			"CREATE TABLE IF NOT EXISTS purchase_order_lines",
		},
	}
	for suffix, checks := range cases {
		content := readMigration(t, suffix)
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", suffix, sub)
			}
		}
	}
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	if err := migrate.ValidateFS(migrate.Embedded()); err != nil {
		t.Fatalf("validate embedded: %v", err)
	}
	onDisk, _ := filepath.Glob(filepath.Join("migrations", "*.sql"))
	compiled, err := fs.Glob(migrate.Embedded(), "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	if len(onDisk) != len(compiled) {
		t.Fatalf("embedded %d files, disk has %d", len(compiled), len(onDisk))
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"20260101000000_Bad-Name.sql": "-- +goose Up\n-- +goose Down\n",
		"20260101000000_no_down.sql":  "-- +goose Up\nSELECT 1;\n",
		"20260101000000_swapped.sql":  "-- +goose Down\n-- +goose Up\n",
	}
	for name, body := range cases {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := migrate.ValidateDir(dir); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestCreateSQLMigrationProducesValidFile(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add offer  pack index!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_offer_pack_index.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("created file invalid: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected error for empty sanitized name")
	}
}
