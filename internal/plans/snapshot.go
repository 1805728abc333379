// Package plans stores computed order plans and checks them against the cart
// they were built from.
package plans

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurematch-backend/internal/optimizer"
)

// ErrNotFound is returned by stores when no snapshot has the requested id.
var ErrNotFound = errors.New("plan snapshot not found")

// Snapshot is an immutable, time-limited record of one optimisation run.
type Snapshot struct {
	ID        string                        `json:"id"`
	BuyerID   uuid.UUID                     `json:"buyer_id"`
	CartHash  string                        `json:"cart_hash"`
	Result    optimizer.Result              `json:"result"`
	Minimums  map[uuid.UUID]decimal.Decimal `json:"minimums"`
	CreatedAt time.Time                     `json:"created_at"`
	ExpiresAt time.Time                     `json:"expires_at"`
}

// Expired reports whether the snapshot is no longer usable at now.
func (s Snapshot) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists snapshots. Save replaces any previous snapshot of the same buyer.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Get(ctx context.Context, id string) (Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// Sweeper is implemented by stores that need expired rows removed explicitly.
type Sweeper interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
