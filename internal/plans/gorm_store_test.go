package plans

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/procurematch-backend/internal/optimizer"
	"github.com/angelmondragon/procurematch-backend/pkg/db/dbtest"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
)

func newSnapshot(buyer uuid.UUID, expires time.Time) Snapshot {
	return Snapshot{
		ID:        uuid.NewString(),
		BuyerID:   buyer,
		CartHash:  HashCart(sampleLines()),
		Result:    optimizer.Result{Success: true, Total: decimal.NewFromInt(42)},
		CreatedAt: expires.Add(-time.Hour),
		ExpiresAt: expires,
	}
}

func TestGormStoreSaveReplacesBuyerRow(t *testing.T) {
	conn := dbtest.Open(t)
	store, err := NewGormStore(conn)
	require.NoError(t, err)
	ctx := context.Background()
	buyer := uuid.New()
	expires := time.Now().UTC().Add(time.Hour)

	first := newSnapshot(buyer, expires)
	require.NoError(t, store.Save(ctx, first))
	second := newSnapshot(buyer, expires)
	require.NoError(t, store.Save(ctx, second))

	var count int64
	require.NoError(t, conn.Model(&models.PlanSnapshot{}).Where("buyer_id = ?", buyer).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = store.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := store.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.CartHash, got.CartHash)
	assert.Equal(t, buyer, got.BuyerID)
	assert.True(t, got.Result.Total.Equal(decimal.NewFromInt(42)))
}

func TestGormStoreDeleteExpired(t *testing.T) {
	conn := dbtest.Open(t)
	store, err := NewGormStore(conn)
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Now().UTC()

	stale := newSnapshot(uuid.New(), now.Add(-2*time.Hour))
	live := newSnapshot(uuid.New(), now.Add(2*time.Hour))
	require.NoError(t, store.Save(ctx, stale))
	require.NoError(t, store.Save(ctx, live))

	n, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, live.ID)
	assert.NoError(t, err)

	require.NoError(t, store.Delete(ctx, live.ID))
	_, err = store.Get(ctx, live.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
