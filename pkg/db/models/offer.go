package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Offer is a supplier's catalog line. The matching core treats it as read-only.
type Offer struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SupplierID     uuid.UUID       `gorm:"column:supplier_id;type:uuid;not null"`
	RawName        string          `gorm:"column:raw_name;not null"`
	NormalizedName string          `gorm:"column:normalized_name"`
	Category       string          `gorm:"column:category"`
	ProductCoreID  string          `gorm:"column:product_core_id"`
	Brand          *string         `gorm:"column:brand"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	PackValue      *float64        `gorm:"column:pack_value;type:numeric(12,4)"`
	PackUnit       *string         `gorm:"column:pack_unit"`
	QtyStep        decimal.Decimal `gorm:"column:qty_step;type:numeric(12,3);not null;default:1"`
	Caliber        *string         `gorm:"column:caliber"`
	FatPercent     *float64        `gorm:"column:fat_percent;type:numeric(5,2)"`
	Flags          pq.StringArray  `gorm:"column:flags;type:text[]"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
