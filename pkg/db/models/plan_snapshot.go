package models

import (
	"time"

	"github.com/google/uuid"
)

// PlanSnapshot persists a computed allocation. One row per buyer at most.
type PlanSnapshot struct {
	ID        string    `gorm:"column:id;primaryKey"`
	BuyerID   uuid.UUID `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex"`
	CartHash  string    `gorm:"column:cart_hash;not null"`
	Payload   []byte    `gorm:"column:payload;type:jsonb;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
