package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Supplier owns offers and declares the minimum order amount per purchase order.
type Supplier struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name           string          `gorm:"column:name;not null"`
	MinOrderAmount decimal.Decimal `gorm:"column:min_order_amount;type:numeric(12,2);not null;default:0"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
