package models

import (
	"time"

	"github.com/google/uuid"
)

// Reference is what a buyer wants to purchase: a favorite or an ad-hoc query.
// SignatureJSON caches the extracted attributes together with the extractor
// version that produced them; a mismatched version forces re-extraction.
type Reference struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID          uuid.UUID `gorm:"column:buyer_id;type:uuid;not null"`
	RawName          string    `gorm:"column:raw_name;not null"`
	Category         *string   `gorm:"column:category"`
	BrandCritical    bool      `gorm:"column:brand_critical;not null;default:false"`
	TargetBrand      *string   `gorm:"column:target_brand"`
	TargetPackValue  *float64  `gorm:"column:target_pack_value;type:numeric(12,4)"`
	TargetPackUnit   *string   `gorm:"column:target_pack_unit"`
	PackTolerance    *float64  `gorm:"column:pack_tolerance;type:numeric(5,4)"`
	SignatureVersion *string   `gorm:"column:signature_version"`
	SignatureJSON    []byte    `gorm:"column:signature;type:jsonb"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName avoids the reserved word "references".
func (Reference) TableName() string {
	return "buyer_references"
}
