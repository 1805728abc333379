package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/procurematch-backend/api/responses"
	"github.com/angelmondragon/procurematch-backend/internal/catalog"
	"github.com/angelmondragon/procurematch-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
)

const envHeader = "X-ProcureMatch-Env"

type pinger interface {
	Ping(context.Context) error
}

type snapshotSource interface {
	Current() *catalog.Snapshot
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready once the database answers and a catalog snapshot
// is loaded. Redis is checked only when configured.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP pinger, redisP pinger, snapshots snapshotSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx := r.Context()
		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not ready"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready"))
				return
			}
		}
		snap := snapshots.Current()
		if snap == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "catalog snapshot not loaded"))
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"status":           "ready",
			"catalog_version":  snap.Version,
			"catalog_built_at": snap.BuiltAt,
		})
	}
}
