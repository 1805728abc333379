package optimizer

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurematch-backend/internal/catalog"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
)

// Option is one eligible offer for a line, in rank order.
type Option struct {
	Offer catalog.Offer `json:"offer"`
	// Brand is the canonical brand as extracted, which may come from the name.
	Brand             string  `json:"brand,omitempty"`
	Score             float64 `json:"score"`
	PackToleranceUsed bool    `json:"pack_tolerance_used,omitempty"`
}

// Line is one resolved cart intent. Locked lines carry only their pinned offer.
type Line struct {
	IntentID    uuid.UUID
	ReferenceID uuid.UUID
	Name        string
	Requested   decimal.Decimal
	Locked      bool
	// Original is what the buyer saw in the cart: the pin or the best match.
	Original      *Option
	Options       []Option
	BrandCritical bool
	TargetBrand   string
	// Reason is set when the line could not be resolved to any offer.
	Reason enums.Reason
}

// Input is a cart ready for optimisation. Suppliers missing from Minimums are
// treated as unavailable.
type Input struct {
	Lines    []Line
	Minimums map[uuid.UUID]decimal.Decimal
}

// PlanLine binds one intent to an offer, or to nothing with a reason.
type PlanLine struct {
	IntentID    uuid.UUID        `json:"intent_id"`
	ReferenceID uuid.UUID        `json:"reference_id"`
	Name        string           `json:"name"`
	Offer       *catalog.Offer   `json:"offer,omitempty"`
	Requested   decimal.Decimal  `json:"requested"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	LineTotal   decimal.Decimal  `json:"line_total"`
	Locked      bool             `json:"locked"`
	Flags       []enums.PlanFlag `json:"flags,omitempty"`
	Reason      enums.Reason     `json:"reason,omitempty"`
	Message     string           `json:"message,omitempty"`
}

// SupplierPlan aggregates the lines placed with one supplier.
type SupplierPlan struct {
	SupplierID   uuid.UUID       `json:"supplier_id"`
	Lines        []PlanLine      `json:"lines"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	MinimumOrder decimal.Decimal `json:"minimum_order_amount"`
	MeetsMinimum bool            `json:"meets_minimum"`
}

// Stats counts what the optimiser did.
type Stats struct {
	TopUps           int `json:"top_ups"`
	Moves            int `json:"moves"`
	Attempts         int `json:"attempts"`
	DroppedSuppliers int `json:"dropped_suppliers"`
}

// Result is the optimiser output. Success means at least one supplier plan
// exists and every plan meets its minimum; Complete means nothing was left out.
type Result struct {
	Success     bool            `json:"success"`
	Complete    bool            `json:"complete"`
	Suppliers   []SupplierPlan  `json:"suppliers"`
	Unfulfilled []PlanLine      `json:"unfulfilled"`
	Total       decimal.Decimal `json:"total"`
	Stats       Stats           `json:"stats"`
}
