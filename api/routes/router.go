package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/procurematch-backend/api/controllers"
	"github.com/angelmondragon/procurematch-backend/api/middleware"
	"github.com/angelmondragon/procurematch-backend/internal/cart"
	"github.com/angelmondragon/procurematch-backend/internal/catalog"
	"github.com/angelmondragon/procurematch-backend/internal/checkout"
	"github.com/angelmondragon/procurematch-backend/internal/matching"
	"github.com/angelmondragon/procurematch-backend/internal/planner"
	"github.com/angelmondragon/procurematch-backend/internal/plans"
	"github.com/angelmondragon/procurematch-backend/internal/references"
	"github.com/angelmondragon/procurematch-backend/pkg/config"
	"github.com/angelmondragon/procurematch-backend/pkg/db"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
	"github.com/angelmondragon/procurematch-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface is wired to.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger
	DB     db.Pinger
	// Redis and Idempotency are nil when Redis is not configured.
	Redis       redis.Pinger
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	Catalog     *catalog.Holder
	Matching    matching.Service
	References  references.Service
	Cart        cart.Service
	Planner     planner.Service
	Plans       *plans.Manager
	Checkout    checkout.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis, p.Catalog))
	})
	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Buyer(logg))
		r.Use(middleware.Idempotency(p.Idempotency, logg))

		r.Post("/match", controllers.Match(p.Matching, p.References, logg))

		r.Route("/references", func(r chi.Router) {
			r.Get("/", controllers.ReferenceList(p.References, logg))
			r.Post("/", controllers.ReferenceCreate(p.References, logg))
			r.Get("/{referenceId}", controllers.ReferenceGet(p.References, logg))
			r.Delete("/{referenceId}", controllers.ReferenceDelete(p.References, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.Cart, logg))
			r.Post("/intents", controllers.CartAddIntent(p.Cart, logg))
			r.Patch("/intents/{intentId}", controllers.CartUpdateIntent(p.Cart, logg))
			r.Delete("/intents/{intentId}", controllers.CartRemoveIntent(p.Cart, logg))
		})

		r.Route("/plans", func(r chi.Router) {
			r.Post("/", controllers.PlanCreate(p.Planner, logg))
			r.Get("/{planId}", controllers.PlanGet(p.Plans, logg))
			r.Post("/{planId}/validate", controllers.PlanValidate(p.Plans, p.Cart, logg))
			r.Delete("/{planId}", controllers.PlanDelete(p.Plans, logg))
			r.Post("/{planId}/checkout", controllers.PlanCheckout(p.Checkout, logg))
		})

		r.Get("/orders", controllers.OrdersList(p.Checkout, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Post("/catalog/rebuild", controllers.AdminCatalogRebuild(p.Catalog, logg))
	})

	return r
}
