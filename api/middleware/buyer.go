package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/procurematch-backend/api/responses"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
)

const buyerIDHeader = "X-Buyer-Id"

// Buyer reads the caller's buyer id from the X-Buyer-Id header. Identity is
// asserted by the upstream gateway.
func Buyer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(buyerIDHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, buyerIDHeader+" header required"))
				return
			}
			buyerID, err := uuid.Parse(raw)
			if err != nil || buyerID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, buyerIDHeader+" must be a uuid"))
				return
			}
			ctx := WithBuyerID(r.Context(), buyerID)
			if logg != nil {
				ctx = logg.WithBuyerID(ctx, buyerID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
