package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurematch-backend/api/responses"
	"github.com/angelmondragon/procurematch-backend/api/validators"
	"github.com/angelmondragon/procurematch-backend/internal/matching"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
)

// MatchRequest matches either a stored reference or free text.
type MatchRequest struct {
	ReferenceID     *uuid.UUID       `json:"reference_id"`
	RawName         string           `json:"raw_name" validate:"required_without=ReferenceID,max=512"`
	Category        string           `json:"category" validate:"max=128"`
	BrandCritical   bool             `json:"brand_critical"`
	TargetBrand     string           `json:"target_brand" validate:"max=128"`
	TargetPackValue *float64         `json:"target_pack_value" validate:"omitempty,gt=0"`
	TargetPackUnit  string           `json:"target_pack_unit" validate:"required_with=TargetPackValue,max=16"`
	PackTolerance   *float64         `json:"pack_tolerance" validate:"omitempty,gte=0,lte=1"`
	Quantity        *decimal.Decimal `json:"quantity" validate:"omitempty,positive_decimal"`
	Mode            string           `json:"mode" validate:"omitempty,oneof=strict similar"`
	Alternatives    *int             `json:"alternatives" validate:"omitempty,gte=0,lte=20"`
}

type referenceResolver interface {
	Resolve(ctx context.Context, buyerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]matching.Reference, error)
}

// Match runs one reference through the matching pipeline. A no-match outcome
// is a 200 with status and reason, never an error.
func Match(svc matching.Service, refs referenceResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload MatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ref, err := matchReference(r, refs, buyerID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		opts := matching.Options{}
		if payload.Mode != "" {
			mode, err := enums.ParseMatchMode(payload.Mode)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mode"))
				return
			}
			opts.Mode = mode
		}
		if payload.Alternatives != nil {
			opts.Alternatives = *payload.Alternatives
		}

		result, err := svc.Match(r.Context(), ref, opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMatchResponse(result))
	}
}

func matchReference(r *http.Request, refs referenceResolver, buyerID uuid.UUID, payload MatchRequest) (matching.Reference, error) {
	qty := decimal.NewFromInt(1)
	if payload.Quantity != nil {
		qty = *payload.Quantity
	}

	if payload.ReferenceID != nil {
		resolved, err := refs.Resolve(r.Context(), buyerID, []uuid.UUID{*payload.ReferenceID})
		if err != nil {
			return matching.Reference{}, err
		}
		ref, ok := resolved[*payload.ReferenceID]
		if !ok {
			return matching.Reference{}, pkgerrors.New(pkgerrors.CodeNotFound, "reference not found")
		}
		ref.Quantity = qty
		return ref, nil
	}

	ref := matching.Reference{
		RawName:       validators.SanitizeString(payload.RawName, 512),
		Category:      strings.TrimSpace(payload.Category),
		BrandCritical: payload.BrandCritical,
		TargetBrand:   strings.TrimSpace(payload.TargetBrand),
		PackTolerance: payload.PackTolerance,
		Quantity:      qty,
	}
	if payload.TargetPackValue != nil {
		ref.TargetPackValue = *payload.TargetPackValue
		ref.TargetPackUnit = strings.TrimSpace(payload.TargetPackUnit)
	}
	return ref, nil
}

func newMatchResponse(res matching.Result) matching.Result {
	if res.Alternatives == nil {
		res.Alternatives = []matching.Candidate{}
	}
	return res
}
