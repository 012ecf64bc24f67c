// Package sweeper bounds how long a stale cart can stay active in storage.
// Expiry is still enforced on access; the sweep only tidies carts nobody
// reads again.
package sweeper

import (
	"context"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"go.uber.org/zap"
)

type Expirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type Sweeper struct {
	repo     Expirer
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func New(repo Expirer, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		repo:     repo,
		interval: interval,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("cart sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			s.log.Info("cart sweeper stopped")
			return
		}
	}
}

// Sweep marks every active cart idle for longer than domain.CartTTL as expired.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	cutoff := s.now().Add(-domain.CartTTL)

	n, err := s.repo.ExpireStale(ctx, cutoff)
	if err != nil {
		s.log.Error("failed to expire stale carts", zap.Error(err))
		return 0
	}
	if n > 0 {
		s.log.Info("expired stale carts", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n
}
