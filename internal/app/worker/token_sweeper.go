package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"coding_documenty/internal/common"
	"coding_documenty/internal/platform/cache"
	"coding_documenty/internal/platform/metrics"
)

// TokenClearer removes reset tokens whose expiry has passed.
type TokenClearer interface {
	ClearExpiredResetTokens(ctx context.Context) (int64, error)
}

type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// TokenSweeper periodically clears expired password reset tokens. Only one
// replica sweeps per tick.
type TokenSweeper struct {
	clearer  TokenClearer
	locker   Locker
	interval time.Duration
}

func NewTokenSweeper(clearer TokenClearer, locker Locker, interval time.Duration) *TokenSweeper {
	return &TokenSweeper{clearer: clearer, locker: locker, interval: interval}
}

func (w *TokenSweeper) Start(ctx context.Context) {
	log.Printf("INFO: Reset token sweeper started, interval %s", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("INFO: Reset token sweeper stopping...")
			return
		case <-ticker.C:
			w.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs one locked sweep and returns how many tokens were cleared.
func (w *TokenSweeper) SweepOnce(ctx context.Context) int64 {
	var cleared int64
	err := w.locker.WithLock(ctx, cache.TokenSweepLockKey, func(ctx context.Context) error {
		n, err := w.clearer.ClearExpiredResetTokens(ctx)
		cleared = n
		return err
	})
	switch {
	case errors.Is(err, common.ErrLockNotAcquired):
		log.Println("INFO: Token sweep skipped, another instance holds the lock.")
	case err != nil:
		log.Printf("ERROR: Token sweep failed: %v", err)
	case cleared > 0:
		metrics.ResetTokensSwept.Add(float64(cleared))
		log.Printf("INFO: Cleared %d expired reset tokens", cleared)
	}
	return cleared
}
