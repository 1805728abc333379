package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurematch-backend/api/responses"
	"github.com/angelmondragon/procurematch-backend/internal/checkout"
	"github.com/angelmondragon/procurematch-backend/internal/optimizer"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
)

type orderLineDTO struct {
	ID        uuid.UUID       `json:"id"`
	IntentID  uuid.UUID       `json:"intent_id"`
	OfferID   uuid.UUID       `json:"offer_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Flags     []string        `json:"flags"`
}

type orderDTO struct {
	ID           uuid.UUID       `json:"id"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	PlanID       string          `json:"plan_id"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	MinimumOrder decimal.Decimal `json:"minimum_order_amount"`
	Lines        []orderLineDTO  `json:"lines"`
	CreatedAt    time.Time       `json:"created_at"`
}

type orderPageDTO struct {
	Orders     []orderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

type checkoutDTO struct {
	PlanID      string               `json:"plan_id"`
	Orders      []orderDTO           `json:"orders"`
	Unfulfilled []optimizer.PlanLine `json:"unfulfilled"`
}

func newOrderDTO(m models.PurchaseOrder) orderDTO {
	out := orderDTO{
		ID:           m.ID,
		SupplierID:   m.SupplierID,
		PlanID:       m.PlanID,
		Subtotal:     m.Subtotal,
		MinimumOrder: m.MinOrder,
		Lines:        make([]orderLineDTO, 0, len(m.Lines)),
		CreatedAt:    m.CreatedAt,
	}
	for _, l := range m.Lines {
		flags := []string(l.Flags)
		if flags == nil {
			flags = []string{}
		}
		out.Lines = append(out.Lines, orderLineDTO{
			ID:        l.ID,
			IntentID:  l.IntentID,
			OfferID:   l.OfferID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.LineTotal,
			Flags:     flags,
		})
	}
	return out
}

// PlanCheckout turns a validated plan into purchase orders.
func PlanCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		planID, err := planIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Execute(r.Context(), buyerID, planID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := checkoutDTO{
			PlanID:      result.PlanID,
			Orders:      make([]orderDTO, 0, len(result.Orders)),
			Unfulfilled: result.Unfulfilled,
		}
		if out.Unfulfilled == nil {
			out.Unfulfilled = []optimizer.PlanLine{}
		}
		for _, o := range result.Orders {
			out.Orders = append(out.Orders, newOrderDTO(o))
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

func OrdersList(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListOrders(r.Context(), buyerID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := orderPageDTO{
			Orders:     make([]orderDTO, 0, len(result.Orders)),
			NextCursor: result.NextCursor,
		}
		for _, o := range result.Orders {
			out.Orders = append(out.Orders, newOrderDTO(o))
		}
		responses.WriteSuccess(w, out)
	}
}
