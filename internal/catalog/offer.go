package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurematch-backend/internal/signature"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
)

// Offer is the read-only view of a supplier offer used by matching and optimisation.
// Quantities are counted in offer units (packs); Price is per pack.
type Offer struct {
	ID            uuid.UUID       `json:"id"`
	SupplierID    uuid.UUID       `json:"supplier_id"`
	Name          string          `json:"name"`
	Category      string          `json:"category,omitempty"`
	ProductCoreID string          `json:"product_core_id,omitempty"`
	Brand         string          `json:"brand,omitempty"`
	Price         decimal.Decimal `json:"price"`
	PackValue     float64         `json:"pack_value,omitempty"`
	PackUnit      string          `json:"pack_unit,omitempty"`
	QtyStep       decimal.Decimal `json:"qty_step"`
	Caliber       string          `json:"caliber,omitempty"`
	FatPct        *float64        `json:"fat_pct,omitempty"`
	Flags         []string        `json:"flags,omitempty"`
	Active        bool            `json:"active"`
}

// FromModel maps a persisted row onto the domain view.
func FromModel(m models.Offer) Offer {
	o := Offer{
		ID:            m.ID,
		SupplierID:    m.SupplierID,
		Name:          strings.TrimSpace(m.RawName),
		Category:      strings.TrimSpace(m.Category),
		ProductCoreID: m.ProductCoreID,
		Price:         m.Price,
		QtyStep:       m.QtyStep,
		Flags:         []string(m.Flags),
		Active:        m.IsActive,
	}
	if m.Brand != nil {
		o.Brand = *m.Brand
	}
	if m.PackValue != nil {
		o.PackValue = *m.PackValue
	}
	if m.PackUnit != nil {
		o.PackUnit = *m.PackUnit
	}
	if m.Caliber != nil {
		o.Caliber = *m.Caliber
	}
	if m.FatPercent != nil {
		v := *m.FatPercent
		o.FatPct = &v
	}
	return o
}

// Malformed reports records missing the fields every offer must carry.
func (o Offer) Malformed() bool {
	return o.ID == uuid.Nil || o.SupplierID == uuid.Nil || o.Name == ""
}

// Priced reports whether the offer can be bought at all.
func (o Offer) Priced() bool {
	return o.Price.IsPositive()
}

// Fields exposes the structured columns to the signature extractor.
func (o Offer) Fields() signature.Fields {
	return signature.Fields{
		Name:      o.Name,
		Category:  o.Category,
		Brand:     o.Brand,
		PackValue: o.PackValue,
		PackUnit:  o.PackUnit,
		Caliber:   o.Caliber,
		FatPct:    o.FatPct,
		Flags:     o.Flags,
	}
}

// BaseQuantity is the pack size converted into its base unit.
func (o Offer) BaseQuantity() (enums.PackUnit, decimal.Decimal, bool) {
	if o.PackValue <= 0 {
		return "", decimal.Zero, false
	}
	unit, factor, ok := signature.ParseUnit(o.PackUnit)
	if !ok {
		return "", decimal.Zero, false
	}
	qty := decimal.NewFromFloat(o.PackValue).Mul(decimal.NewFromFloat(factor))
	if !qty.IsPositive() {
		return "", decimal.Zero, false
	}
	return unit, qty, true
}

// PPU is the price per base unit (kg, l or piece). Invalid when the pack is unknown.
func (o Offer) PPU() decimal.NullDecimal {
	if !o.Priced() {
		return decimal.NullDecimal{}
	}
	_, qty, ok := o.BaseQuantity()
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(o.Price.DivRound(qty, 4))
}

// LineCost is the price of qty packs.
func (o Offer) LineCost(qty decimal.Decimal) decimal.Decimal {
	return o.Price.Mul(qty)
}

// Step is the smallest orderable increment; defaults to one pack.
func (o Offer) Step() decimal.Decimal {
	if o.QtyStep.IsPositive() {
		return o.QtyStep
	}
	return decimal.NewFromInt(1)
}
