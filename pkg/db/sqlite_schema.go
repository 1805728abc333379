package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// sqliteSchema mirrors the goose migrations for local sqlite mode. Arrays and
// jsonb are stored as text; uuids as their string form.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS suppliers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  min_order_amount TEXT NOT NULL DEFAULT '0',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS brands (
  id TEXT PRIMARY KEY,
  canonical TEXT NOT NULL,
  aliases TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS offers (
  id TEXT PRIMARY KEY,
  supplier_id TEXT NOT NULL,
  raw_name TEXT NOT NULL,
  normalized_name TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  product_core_id TEXT NOT NULL DEFAULT '',
  brand TEXT,
  price TEXT NOT NULL,
  pack_value REAL,
  pack_unit TEXT,
  qty_step TEXT NOT NULL DEFAULT '1',
  caliber TEXT,
  fat_percent REAL,
  flags TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS buyer_references (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  raw_name TEXT NOT NULL,
  category TEXT,
  brand_critical INTEGER NOT NULL DEFAULT 0,
  target_brand TEXT,
  target_pack_value REAL,
  target_pack_unit TEXT,
  pack_tolerance REAL,
  signature_version TEXT,
  signature BLOB,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL UNIQUE,
  state TEXT NOT NULL DEFAULT 'draft',
  plan_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS cart_intents (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  reference_id TEXT NOT NULL,
  quantity TEXT NOT NULL,
  pinned_offer_id TEXT,
  locked INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS plan_snapshots (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL UNIQUE,
  cart_hash TEXT NOT NULL,
  payload BLOB NOT NULL,
  expires_at DATETIME NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  supplier_id TEXT NOT NULL,
  plan_id TEXT NOT NULL,
  subtotal TEXT NOT NULL,
  min_order_amount TEXT NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS purchase_order_lines (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  intent_id TEXT NOT NULL,
  offer_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  line_total TEXT NOT NULL,
  flags TEXT,
  created_at DATETIME
);`,
}

// ApplySQLiteSchema creates every table on a sqlite connection. It is a no-op
// on other dialects, which are migrated by goose.
func ApplySQLiteSchema(ctx context.Context, conn *gorm.DB) error {
	if conn.Dialector.Name() != "sqlite" {
		return nil
	}
	for _, stmt := range sqliteSchema {
		if err := conn.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
