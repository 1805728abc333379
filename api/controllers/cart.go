package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurematch-backend/api/responses"
	"github.com/angelmondragon/procurematch-backend/api/validators"
	cartsvc "github.com/angelmondragon/procurematch-backend/internal/cart"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
)

type AddIntentRequest struct {
	ReferenceID   uuid.UUID       `json:"reference_id" validate:"required"`
	Quantity      decimal.Decimal `json:"quantity" validate:"positive_decimal"`
	PinnedOfferID *uuid.UUID      `json:"pinned_offer_id"`
	Locked        bool            `json:"locked"`
}

type UpdateIntentRequest struct {
	Quantity      *decimal.Decimal `json:"quantity" validate:"omitempty,positive_decimal"`
	PinnedOfferID *uuid.UUID       `json:"pinned_offer_id"`
	ClearPin      bool             `json:"clear_pin"`
	Locked        *bool            `json:"locked"`
}

type intentDTO struct {
	ID            uuid.UUID       `json:"id"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	PinnedOfferID *uuid.UUID      `json:"pinned_offer_id,omitempty"`
	Locked        bool            `json:"locked"`
}

type cartDTO struct {
	ID      uuid.UUID       `json:"id"`
	State   enums.CartState `json:"state"`
	PlanID  *string         `json:"plan_id,omitempty"`
	Intents []intentDTO     `json:"intents"`
}

func newIntentDTO(m models.CartIntent) intentDTO {
	return intentDTO{
		ID:            m.ID,
		ReferenceID:   m.ReferenceID,
		Quantity:      m.Quantity,
		PinnedOfferID: m.PinnedOfferID,
		Locked:        m.Locked,
	}
}

func newCartDTO(v *cartsvc.View) cartDTO {
	out := cartDTO{
		ID:      v.Cart.ID,
		State:   v.Cart.State,
		PlanID:  v.Cart.PlanID,
		Intents: make([]intentDTO, 0, len(v.Intents)),
	}
	for _, intent := range v.Intents {
		out.Intents = append(out.Intents, newIntentDTO(intent))
	}
	return out
}

// CartFetch returns the buyer's cart, creating an empty draft on first use.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartDTO(view))
	}
}

func CartAddIntent(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload AddIntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		intent, err := svc.AddIntent(r.Context(), buyerID, cartsvc.IntentInput{
			ReferenceID:   payload.ReferenceID,
			Quantity:      payload.Quantity,
			PinnedOfferID: payload.PinnedOfferID,
			Locked:        payload.Locked,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newIntentDTO(*intent))
	}
}

func CartUpdateIntent(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		intentID, err := uuidParam(r, "intentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload UpdateIntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		intent, err := svc.UpdateIntent(r.Context(), buyerID, intentID, cartsvc.IntentUpdate{
			Quantity:      payload.Quantity,
			PinnedOfferID: payload.PinnedOfferID,
			ClearPin:      payload.ClearPin,
			Locked:        payload.Locked,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newIntentDTO(*intent))
	}
}

func CartRemoveIntent(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		intentID, err := uuidParam(r, "intentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveIntent(r.Context(), buyerID, intentID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
