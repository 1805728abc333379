package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/procurematch-backend/pkg/logger"
)

// PlanSweepJobParams configures the plan snapshot sweep.
type PlanSweepJobParams struct {
	Logger *logger.Logger
	Plans  snapshotSweeper
	Carts  stalePlanMarker
	// PlanTTL is how long a planned cart stays planned without activity.
	PlanTTL time.Duration
}

type snapshotSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

type stalePlanMarker interface {
	MarkStalePlans(ctx context.Context, before time.Time) (int64, error)
}

// NewPlanSweepJob constructs the job that deletes expired plan snapshots and
// flags carts whose plan outlived its TTL.
func NewPlanSweepJob(params PlanSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Plans == nil {
		return nil, fmt.Errorf("plan manager required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.PlanTTL <= 0 {
		return nil, fmt.Errorf("plan ttl must be positive")
	}
	return &planSweepJob{
		logg:  params.Logger,
		plans: params.Plans,
		carts: params.Carts,
		ttl:   params.PlanTTL,
		now:   time.Now,
	}, nil
}

type planSweepJob struct {
	logg  *logger.Logger
	plans snapshotSweeper
	carts stalePlanMarker
	ttl   time.Duration
	now   func() time.Time
}

func (j *planSweepJob) Name() string { return "plan-snapshot-sweep" }

// Run attempts both steps and reports every failure.
func (j *planSweepJob) Run(ctx context.Context) error {
	var errs []error

	deleted, err := j.plans.Sweep(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("sweep snapshots: %w", err))
	}

	cutoff := j.now().UTC().Add(-j.ttl)
	marked, err := j.carts.MarkStalePlans(ctx, cutoff)
	if err != nil {
		errs = append(errs, fmt.Errorf("mark stale carts: %w", err))
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"snapshots_deleted": deleted,
		"carts_marked":      marked,
		"cutoff":            cutoff,
	})
	j.logg.Info(logCtx, "plan sweep complete")
	return multierr.Combine(errs...)
}
