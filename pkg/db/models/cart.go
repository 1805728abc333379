package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurematch-backend/pkg/enums"
)

// Cart is the buyer-scoped container whose state tracks the planning lifecycle.
type Cart struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID   uuid.UUID       `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex"`
	State     enums.CartState `gorm:"column:state;type:text;not null;default:'draft'"`
	PlanID    *string         `gorm:"column:plan_id"`
	Intents   []CartIntent    `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// CartIntent is one line the buyer wants: a reference, a quantity and an optional pin.
type CartIntent struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CartID        uuid.UUID       `gorm:"column:cart_id;type:uuid;not null"`
	ReferenceID   uuid.UUID       `gorm:"column:reference_id;type:uuid;not null"`
	Quantity      decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null"`
	PinnedOfferID *uuid.UUID      `gorm:"column:pinned_offer_id;type:uuid"`
	Locked        bool            `gorm:"column:locked;not null;default:false"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
