package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"coding_documenty/internal/common"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	SignupLockKey     = "lock:admin-signup"
	TokenSweepLockKey = "lock:reset-token-sweep"
)

// Only the holder's value may delete the key.
var releaseScript = redis.NewScript(`
    if redis.call("get", KEYS[1]) == ARGV[1] then
        return redis.call("del", KEYS[1])
    else
        return 0
    end
`)

// Locker hands out single-holder locks backed by SET NX PX.
type Locker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLocker(rdb *redis.Client, ttl time.Duration) *Locker {
	return &Locker{rdb: rdb, ttl: ttl}
}

type Lock struct {
	rdb   *redis.Client
	key   string
	value string
}

// Acquire returns common.ErrLockNotAcquired when someone else holds key.
func (l *Locker) Acquire(ctx context.Context, key string) (*Lock, error) {
	value := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, value, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w: %v", key, common.ErrServiceUnavailable, err)
	}
	if !ok {
		return nil, common.ErrLockNotAcquired
	}
	return &Lock{rdb: l.rdb, key: key, value: value}, nil
}

// Release deletes the key if it still carries this lock's value.
func (lk *Lock) Release(ctx context.Context) {
	deleted, err := releaseScript.Run(ctx, lk.rdb, []string{lk.key}, lk.value).Int64()
	if err != nil {
		log.Printf("ERROR: Failed to release lock %s: %v", lk.key, err)
		return
	}
	if deleted != 1 {
		log.Printf("WARN: Lock %s expired or was taken over before release.", lk.key)
	}
}

// WithLock runs fn while holding key.
func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lk, err := l.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer lk.Release(context.WithoutCancel(ctx))
	return fn(ctx)
}
