package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/procurematch-backend/api/responses"
	"github.com/angelmondragon/procurematch-backend/api/validators"
	"github.com/angelmondragon/procurematch-backend/internal/references"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
)

type CreateReferenceRequest struct {
	RawName         string   `json:"raw_name" validate:"required,max=512"`
	Category        string   `json:"category" validate:"max=128"`
	BrandCritical   bool     `json:"brand_critical"`
	TargetBrand     string   `json:"target_brand" validate:"max=128"`
	TargetPackValue *float64 `json:"target_pack_value" validate:"omitempty,gt=0"`
	TargetPackUnit  string   `json:"target_pack_unit" validate:"required_with=TargetPackValue,max=16"`
	PackTolerance   *float64 `json:"pack_tolerance" validate:"omitempty,gte=0,lte=1"`
}

type referenceDTO struct {
	ID               uuid.UUID `json:"id"`
	RawName          string    `json:"raw_name"`
	Category         *string   `json:"category,omitempty"`
	BrandCritical    bool      `json:"brand_critical"`
	TargetBrand      *string   `json:"target_brand,omitempty"`
	TargetPackValue  *float64  `json:"target_pack_value,omitempty"`
	TargetPackUnit   *string   `json:"target_pack_unit,omitempty"`
	PackTolerance    *float64  `json:"pack_tolerance,omitempty"`
	SignatureVersion *string   `json:"signature_version,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func newReferenceDTO(m models.Reference) referenceDTO {
	return referenceDTO{
		ID:               m.ID,
		RawName:          m.RawName,
		Category:         m.Category,
		BrandCritical:    m.BrandCritical,
		TargetBrand:      m.TargetBrand,
		TargetPackValue:  m.TargetPackValue,
		TargetPackUnit:   m.TargetPackUnit,
		PackTolerance:    m.PackTolerance,
		SignatureVersion: m.SignatureVersion,
		CreatedAt:        m.CreatedAt,
	}
}

func ReferenceCreate(svc references.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload CreateReferenceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ref, err := svc.Create(r.Context(), buyerID, references.CreateInput{
			RawName:         validators.SanitizeString(payload.RawName, 512),
			Category:        payload.Category,
			BrandCritical:   payload.BrandCritical,
			TargetBrand:     payload.TargetBrand,
			TargetPackValue: payload.TargetPackValue,
			TargetPackUnit:  payload.TargetPackUnit,
			PackTolerance:   payload.PackTolerance,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newReferenceDTO(*ref))
	}
}

func ReferenceList(svc references.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.List(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]referenceDTO, 0, len(rows))
		for _, row := range rows {
			out = append(out, newReferenceDTO(row))
		}
		responses.WriteSuccess(w, out)
	}
}

func ReferenceGet(svc references.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "referenceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ref, err := svc.Get(r.Context(), buyerID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newReferenceDTO(*ref))
	}
}

func ReferenceDelete(svc references.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "referenceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), buyerID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
