package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// A sweep cycle is short; a crashed holder should not block the next few.
const defaultLockTTL = 10 * time.Minute

// Lock keeps two cron-worker replicas from sweeping the same plans at once.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a SETNX lease. The stored value names the worker instance plus
// a per-acquire token, so an operator can see who holds the sweep.
type RedisLock struct {
	client   redisStore
	key      string
	ttl      time.Duration
	instance string
	token    string
}

func NewRedisLock(client redisStore, key, instanceID string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if instanceID == "" {
		instanceID = "unknown"
	}
	return &RedisLock{client: client, key: key, ttl: ttl, instance: instanceID}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := l.instance + "/" + uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Holder returns the token currently stored under the lock key, or "" when free.
func (l *RedisLock) Holder(ctx context.Context) (string, error) {
	value, err := l.client.Get(ctx, l.key)
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read lock holder: %w", err)
	}
	return value, nil
}

// Release is a no-op unless this instance still holds the lease. A lease that
// expired mid-cycle and was taken by another replica is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	holder, err := l.Holder(ctx)
	if err != nil {
		return err
	}
	if holder != l.token {
		l.token = ""
		return nil
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.token = ""
	return nil
}
