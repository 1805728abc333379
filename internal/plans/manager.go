package plans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurematch-backend/internal/optimizer"
	"github.com/angelmondragon/procurematch-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
	"github.com/angelmondragon/procurematch-backend/pkg/metrics"
)

// Manager creates, loads and validates plan snapshots.
type Manager struct {
	store   Store
	ttl     time.Duration
	logg    *logger.Logger
	metrics *metrics.MatchMetrics
	now     func() time.Time
}

// NewManager binds a store to the configured TTL.
func NewManager(store Store, cfg config.PlansConfig, logg *logger.Logger, m *metrics.MatchMetrics) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("plan store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{
		store:   store,
		ttl:     ttl,
		logg:    logg,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create stores a new snapshot for buyer, superseding the previous one.
func (m *Manager) Create(ctx context.Context, buyerID uuid.UUID, lines []CartLine, result optimizer.Result, minimums map[uuid.UUID]decimal.Decimal) (Snapshot, error) {
	now := m.now()
	snap := Snapshot{
		ID:        uuid.NewString(),
		BuyerID:   buyerID,
		CartHash:  HashCart(lines),
		Result:    result,
		Minimums:  minimums,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, snap); err != nil {
		m.metrics.IncPlanOp("create", "error")
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save plan snapshot")
	}
	m.metrics.IncPlanOp("create", "ok")
	m.logg.Info(m.logg.WithPlanID(ctx, snap.ID), "plan snapshot created")
	return snap, nil
}

// Load returns the buyer's snapshot. A snapshot owned by another buyer is
// reported as missing; an expired one is deleted and reported as expired.
func (m *Manager) Load(ctx context.Context, buyerID uuid.UUID, planID string) (Snapshot, error) {
	snap, err := m.store.Get(ctx, planID)
	if errors.Is(err, ErrNotFound) || (err == nil && snap.BuyerID != buyerID) {
		m.metrics.IncPlanOp("load", "not_found")
		return Snapshot{}, pkgerrors.New(pkgerrors.CodePlanNotFound, "plan not found")
	}
	if err != nil {
		m.metrics.IncPlanOp("load", "error")
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan snapshot")
	}
	if snap.Expired(m.now()) {
		if err := m.store.Delete(ctx, planID); err != nil {
			m.logg.Error(m.logg.WithPlanID(ctx, planID), "delete expired plan snapshot", err)
		}
		m.metrics.IncPlanOp("load", "expired")
		return Snapshot{}, pkgerrors.New(pkgerrors.CodePlanExpired, "plan expired")
	}
	m.metrics.IncPlanOp("load", "ok")
	return snap, nil
}

// ValidateUnchanged reports whether lines still hash to the snapshot's cart
// hash, together with the current hash.
func (m *Manager) ValidateUnchanged(ctx context.Context, buyerID uuid.UUID, planID string, lines []CartLine) (bool, string, error) {
	snap, err := m.Load(ctx, buyerID, planID)
	if err != nil {
		return false, "", err
	}
	current := HashCart(lines)
	unchanged := current == snap.CartHash
	result := "unchanged"
	if !unchanged {
		result = "changed"
	}
	m.metrics.IncPlanOp("validate", result)
	return unchanged, current, nil
}

// Require loads the snapshot and fails with PLAN_CHANGED when the cart moved on.
func (m *Manager) Require(ctx context.Context, buyerID uuid.UUID, planID string, lines []CartLine) (Snapshot, error) {
	snap, err := m.Load(ctx, buyerID, planID)
	if err != nil {
		return Snapshot{}, err
	}
	current := HashCart(lines)
	if current != snap.CartHash {
		m.metrics.IncPlanOp("validate", "changed")
		return Snapshot{}, pkgerrors.New(pkgerrors.CodePlanChanged, "cart changed since plan was created").
			WithDetails(map[string]string{"plan_hash": snap.CartHash, "cart_hash": current})
	}
	m.metrics.IncPlanOp("validate", "unchanged")
	return snap, nil
}

// Delete removes the buyer's snapshot. Deleting a missing plan is not an error.
func (m *Manager) Delete(ctx context.Context, buyerID uuid.UUID, planID string) error {
	snap, err := m.store.Get(ctx, planID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan snapshot")
	}
	if snap.BuyerID != buyerID {
		return pkgerrors.New(pkgerrors.CodePlanNotFound, "plan not found")
	}
	if err := m.store.Delete(ctx, planID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete plan snapshot")
	}
	m.metrics.IncPlanOp("delete", "ok")
	return nil
}

// Sweep removes expired snapshots when the store keeps them past expiry.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	sweeper, ok := m.store.(Sweeper)
	if !ok {
		return 0, nil
	}
	return sweeper.DeleteExpired(ctx, m.now())
}
