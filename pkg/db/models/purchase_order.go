package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// PurchaseOrder is written per supplier plan when a buyer checks out.
type PurchaseOrder struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID    uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null"`
	SupplierID uuid.UUID           `gorm:"column:supplier_id;type:uuid;not null"`
	PlanID     string              `gorm:"column:plan_id;not null"`
	Subtotal   decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	MinOrder   decimal.Decimal     `gorm:"column:min_order_amount;type:numeric(12,2);not null"`
	Lines      []PurchaseOrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
}

type PurchaseOrderLine struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	IntentID  uuid.UUID       `gorm:"column:intent_id;type:uuid;not null"`
	OfferID   uuid.UUID       `gorm:"column:offer_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	Flags     pq.StringArray  `gorm:"column:flags;type:text[]"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
