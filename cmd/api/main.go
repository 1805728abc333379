package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/procurematch-backend/api/routes"
	"github.com/angelmondragon/procurematch-backend/internal/cart"
	"github.com/angelmondragon/procurematch-backend/internal/catalog"
	"github.com/angelmondragon/procurematch-backend/internal/checkout"
	"github.com/angelmondragon/procurematch-backend/internal/gates"
	"github.com/angelmondragon/procurematch-backend/internal/matching"
	"github.com/angelmondragon/procurematch-backend/internal/optimizer"
	"github.com/angelmondragon/procurematch-backend/internal/planner"
	"github.com/angelmondragon/procurematch-backend/internal/plans"
	"github.com/angelmondragon/procurematch-backend/internal/references"
	"github.com/angelmondragon/procurematch-backend/pkg/config"
	"github.com/angelmondragon/procurematch-backend/pkg/db"
	"github.com/angelmondragon/procurematch-backend/pkg/instance"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
	"github.com/angelmondragon/procurematch-backend/pkg/metrics"
	"github.com/angelmondragon/procurematch-backend/pkg/migrate"
	"github.com/angelmondragon/procurematch-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName:   "api",
		Level:         logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:     cfg.App.LogWarnStack,
		FilePath:      cfg.App.LogFile,
		FileMaxSizeMB: cfg.App.LogMaxSizeMB,
	})
	defer logg.Close()

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	params := routes.RouterParams{Config: cfg, Logger: logg, DB: dbClient}

	var redisClient *redis.Client
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		params.Redis = redisClient
		params.Idempotency = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, idempotency keys disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	matchMetrics := metrics.NewMatchMetrics(registry)
	params.Gatherer = registry

	conn := dbClient.DB()
	offers := catalog.NewRepository(conn)

	holder, err := catalog.NewHolder(offers, cfg.Matching, logg, matchMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog holder", err)
		os.Exit(1)
	}
	if _, err := holder.Rebuild(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to build catalog snapshot", err)
		os.Exit(1)
	}
	params.Catalog = holder

	store, err := openPlanStore(cfg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to open plan store", err)
		os.Exit(1)
	}
	planManager, err := plans.NewManager(store, cfg.Plans, logg, matchMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create plan manager", err)
		os.Exit(1)
	}
	params.Plans = planManager

	matcher := matching.NewMatcher(gates.DefaultRegistry(), cfg.Matching)
	params.Matching, err = matching.NewService(matcher, holder, offers, logg, matchMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create matching service", err)
		os.Exit(1)
	}

	refRepo := references.NewRepository(conn)
	params.References, err = references.NewService(refRepo, holder)
	if err != nil {
		logg.Error(context.Background(), "failed to create reference service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(conn)
	params.Cart, err = cart.NewService(cartRepo, dbClient, refRepo, offers)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	params.Planner, err = planner.NewService(planner.ServiceParams{
		Logger:     logg,
		Metrics:    matchMetrics,
		Catalog:    holder,
		Carts:      cartRepo,
		CartState:  params.Cart,
		References: params.References,
		Offers:     offers,
		Matcher:    matcher,
		Optimizer:  optimizer.New(cfg.Optimizer),
		Plans:      planManager,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create planner service", err)
		os.Exit(1)
	}

	params.Checkout, err = checkout.NewService(checkout.ServiceParams{
		Logger:  logg,
		Metrics: matchMetrics,
		DB:      dbClient,
		Carts:   cartRepo,
		Orders:  checkout.NewRepository(conn),
		Plans:   planManager,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"instance":   instance.GetID(),
		"plan_store": cfg.Plans.Store,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(params),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down")
}

// openPlanStore avoids handing a typed nil redis client to the store selector.
func openPlanStore(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client) (plans.Store, error) {
	if redisClient == nil {
		return plans.OpenStore(cfg.Plans, dbClient.DB(), nil)
	}
	return plans.OpenStore(cfg.Plans, dbClient.DB(), redisClient)
}
