package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/procurematch-backend/pkg/redis"
)

type kv interface {
	SetPair(ctx context.Context, ttl time.Duration, key1, value1, key2, value2 string) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	PlanKey(planID string) string
	BuyerPlanKey(buyerID string) string
}

// RedisStore keeps snapshots as JSON strings. Keys outlive ExpiresAt by the
// grace window so a late load can still report expiry instead of absence.
type RedisStore struct {
	client kv
	grace  time.Duration
	now    func() time.Time
}

func NewRedisStore(client kv, grace time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if grace < 0 {
		grace = 0
	}
	return &RedisStore{client: client, grace: grace, now: time.Now}, nil
}

func (s *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode plan snapshot: %w", err)
	}
	buyerKey := s.client.BuyerPlanKey(snap.BuyerID.String())
	previous, err := s.client.Get(ctx, buyerKey)
	switch {
	case errors.Is(err, redis.ErrNil):
	case err != nil:
		return err
	case previous != snap.ID:
		if err := s.client.Del(ctx, s.client.PlanKey(previous)); err != nil {
			return err
		}
	}

	ttl := snap.ExpiresAt.Sub(s.now()) + s.grace
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.client.SetPair(ctx, ttl, s.client.PlanKey(snap.ID), string(payload), buyerKey, snap.ID)
}

func (s *RedisStore) Get(ctx context.Context, id string) (Snapshot, error) {
	raw, err := s.client.Get(ctx, s.client.PlanKey(id))
	if errors.Is(err, redis.ErrNil) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode plan snapshot: %w", err)
	}
	return snap, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	snap, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	keys := []string{s.client.PlanKey(id)}
	buyerKey := s.client.BuyerPlanKey(snap.BuyerID.String())
	if current, err := s.client.Get(ctx, buyerKey); err == nil && current == id {
		keys = append(keys, buyerKey)
	}
	return s.client.Del(ctx, keys...)
}
