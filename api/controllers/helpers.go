package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/procurematch-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
	"github.com/angelmondragon/procurematch-backend/pkg/pagination"
)

func buyerIDFromRequest(r *http.Request) (uuid.UUID, error) {
	buyerID, ok := middleware.BuyerIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer context missing")
	}
	return buyerID, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+name).WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

func planIDParam(r *http.Request) (string, error) {
	planID := strings.TrimSpace(chi.URLParam(r, "planId"))
	if planID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "plan id required")
	}
	return planID, nil
}

// pageParams reads ?limit= and ?cursor=. Out of range limits are clamped later.
func pageParams(r *http.Request) (pagination.Params, error) {
	q := r.URL.Query()
	params := pagination.Params{Cursor: strings.TrimSpace(q.Get("cursor"))}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return pagination.Params{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid limit").WithDetails(map[string]any{"field": "limit"})
		}
		params.Limit = limit
	}
	return params, nil
}
