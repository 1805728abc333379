package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/procurematch-backend/internal/cart"
	"github.com/angelmondragon/procurematch-backend/internal/cron"
	"github.com/angelmondragon/procurematch-backend/internal/plans"
	"github.com/angelmondragon/procurematch-backend/pkg/config"
	"github.com/angelmondragon/procurematch-backend/pkg/db"
	"github.com/angelmondragon/procurematch-backend/pkg/instance"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
	"github.com/angelmondragon/procurematch-backend/pkg/metrics"
	"github.com/angelmondragon/procurematch-backend/pkg/migrate"
	"github.com/angelmondragon/procurematch-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName:   "cron-worker",
		Level:         logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:     cfg.App.LogWarnStack,
		FilePath:      cfg.App.LogFile,
		FileMaxSizeMB: cfg.App.LogMaxSizeMB,
	})
	defer logg.Close()

	if !cfg.Redis.Configured() {
		logg.Error(context.Background(), "failed to load config", fmt.Errorf("cron worker requires redis for its lock"))
		os.Exit(1)
	}

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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	store, err := plans.OpenStore(cfg.Plans, dbClient.DB(), redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to open plan store", err)
		os.Exit(1)
	}
	planManager, err := plans.NewManager(store, cfg.Plans, logg, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create plan manager", err)
		os.Exit(1)
	}

	sweep, err := cron.NewPlanSweepJob(cron.PlanSweepJobParams{
		Logger:  logg,
		Plans:   planManager,
		Carts:   cart.NewRepository(dbClient.DB()),
		PlanTTL: cfg.Plans.TTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create plan sweep job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), instance.GetID(), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(sweep)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"instance":   instance.GetID(),
		"plan_store": cfg.Plans.Store,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return "cron-worker:" + env
}
