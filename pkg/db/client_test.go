package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurematch-backend/pkg/config"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:dbclient?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestNew_SQLiteMode(t *testing.T) {
	cfg := config.DBConfig{SQLitePath: filepath.Join(t.TempDir(), "local.db")}
	client, err := New(context.Background(), cfg, true, nil)
	if err != nil {
		t.Fatalf("New sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if name := client.DB().Dialector.Name(); name != "sqlite" {
		t.Fatalf("expected sqlite dialector, got %s", name)
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestNew_RequiresDSNForPostgres(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{}, false, nil); err == nil {
		t.Fatal("expected missing dsn to fail")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: carts.buyer_id"), "") {
		t.Fatal("expected sqlite unique violation to be detected")
	}
	if !IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "carts_buyer_id_key"`), "carts_buyer_id_key") {
		t.Fatal("expected named constraint to be detected")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error is not a violation")
	}
	pgErr := fmt.Errorf("create cart: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_carts_buyer"})
	if !IsUniqueViolation(pgErr, "idx_carts_buyer") {
		t.Fatal("expected wrapped pgx violation to be detected")
	}
	if IsUniqueViolation(pgErr, "idx_plan_snapshots_buyer") {
		t.Fatal("constraint name must narrow the match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatal("foreign key failure is not a unique violation")
	}
	if !IsNotFound(gorm.ErrRecordNotFound) {
		t.Fatal("expected record not found")
	}
}

func TestQueryLoggerReportsOnlySlowStatements(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "db-test", Output: &buf})
	ql := newQueryLogger(logg, 200*time.Millisecond)
	stmt := func() (string, int64) { return `SELECT * FROM "offers" WHERE active = true`, 42 }

	ql.Trace(context.Background(), time.Now(), stmt, nil)
	if buf.Len() != 0 {
		t.Fatalf("fast query should not log, got %s", buf.String())
	}
	ql.Trace(context.Background(), time.Now().Add(-time.Second), stmt, nil)
	if !strings.Contains(buf.String(), "db.slow_query") || !strings.Contains(buf.String(), `"rows":42`) {
		t.Fatalf("expected slow query line, got %s", buf.String())
	}

	if newQueryLogger(nil, time.Second) == nil {
		t.Fatal("nil service logger should fall back to a discarding gorm logger")
	}
}
