package plans

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/procurematch-backend/pkg/db"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
)

// GormStore keeps snapshots in plan_snapshots, one row per buyer.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(conn *gorm.DB) (*GormStore, error) {
	if conn == nil {
		return nil, fmt.Errorf("db required")
	}
	return &GormStore{db: conn}, nil
}

// Save deletes the buyer's previous row and inserts the new one in a single
// transaction.
func (s *GormStore) Save(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode plan snapshot: %w", err)
	}
	row := models.PlanSnapshot{
		ID:        snap.ID,
		BuyerID:   snap.BuyerID,
		CartHash:  snap.CartHash,
		Payload:   payload,
		ExpiresAt: snap.ExpiresAt.UTC(),
		CreatedAt: snap.CreatedAt.UTC(),
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("buyer_id = ?", snap.BuyerID).Delete(&models.PlanSnapshot{}).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
}

func (s *GormStore) Get(ctx context.Context, id string) (Snapshot, error) {
	var row models.PlanSnapshot
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if db.IsNotFound(err) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(row.Payload, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode plan snapshot %s: %w", id, err)
	}
	// The row is authoritative for identity and expiry.
	snap.ID = row.ID
	snap.BuyerID = row.BuyerID
	snap.CartHash = row.CartHash
	snap.ExpiresAt = row.ExpiresAt
	return snap, nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PlanSnapshot{}).Error
}

// DeleteExpired removes rows whose expiry is at or before the cutoff.
func (s *GormStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", before.UTC()).Delete(&models.PlanSnapshot{})
	return res.RowsAffected, res.Error
}
