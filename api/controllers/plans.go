package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/procurematch-backend/api/responses"
	"github.com/angelmondragon/procurematch-backend/api/validators"
	cartsvc "github.com/angelmondragon/procurematch-backend/internal/cart"
	"github.com/angelmondragon/procurematch-backend/internal/optimizer"
	"github.com/angelmondragon/procurematch-backend/internal/planner"
	"github.com/angelmondragon/procurematch-backend/internal/plans"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
)

type planStore interface {
	Load(ctx context.Context, buyerID uuid.UUID, planID string) (plans.Snapshot, error)
	ValidateUnchanged(ctx context.Context, buyerID uuid.UUID, planID string, lines []plans.CartLine) (bool, string, error)
	Delete(ctx context.Context, buyerID uuid.UUID, planID string) error
}

type CreatePlanRequest struct {
	Mode string `json:"mode" validate:"omitempty,oneof=strict similar"`
}

type planDTO struct {
	ID        string    `json:"plan_id"`
	CartHash  string    `json:"cart_hash"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	optimizer.Result
}

type planValidationDTO struct {
	PlanID   string `json:"plan_id"`
	Valid    bool   `json:"valid"`
	CartHash string `json:"cart_hash"`
}

func newPlanDTO(snap plans.Snapshot) planDTO {
	out := planDTO{
		ID:        snap.ID,
		CartHash:  snap.CartHash,
		CreatedAt: snap.CreatedAt,
		ExpiresAt: snap.ExpiresAt,
		Result:    snap.Result,
	}
	if out.Suppliers == nil {
		out.Suppliers = []optimizer.SupplierPlan{}
	}
	if out.Unfulfilled == nil {
		out.Unfulfilled = []optimizer.PlanLine{}
	}
	return out
}

// PlanCreate builds and stores a plan for the buyer's current cart. The body
// is optional.
func PlanCreate(svc planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload CreatePlanRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		opts := planner.Options{}
		if payload.Mode != "" {
			mode, err := enums.ParseMatchMode(payload.Mode)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mode"))
				return
			}
			opts.Mode = mode
		}
		snap, err := svc.Plan(r.Context(), buyerID, opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPlanDTO(snap))
	}
}

func PlanGet(store planStore, logg *logger.Logger) http.HandlerFunc {
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
		snap, err := store.Load(r.Context(), buyerID, planID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPlanDTO(snap))
	}
}

// PlanValidate reports whether the cart still matches the plan. A changed
// cart is a successful response with valid=false.
func PlanValidate(store planStore, carts cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		view, err := carts.Get(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		valid, hash, err := store.ValidateUnchanged(r.Context(), buyerID, planID, cartsvc.HashLines(view.Intents))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, planValidationDTO{PlanID: planID, Valid: valid, CartHash: hash})
	}
}

func PlanDelete(store planStore, logg *logger.Logger) http.HandlerFunc {
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
		if err := store.Delete(r.Context(), buyerID, planID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
