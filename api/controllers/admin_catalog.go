package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/procurematch-backend/api/responses"
	"github.com/angelmondragon/procurematch-backend/internal/catalog"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
)

type catalogRebuilder interface {
	Rebuild(ctx context.Context) (*catalog.Snapshot, error)
}

// AdminCatalogRebuild swaps in a freshly built classifier and brand dictionary.
func AdminCatalogRebuild(holder catalogRebuilder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := holder.Rebuild(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		keywords, documents := snap.Index.Size()
		responses.WriteSuccess(w, map[string]any{
			"version":   snap.Version,
			"extractor": snap.Extractor.Version(),
			"keywords":  keywords,
			"documents": documents,
			"built_at":  snap.BuiltAt,
		})
	}
}
