package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrDirectoryUnavailable is returned while the breaker is open.
var ErrDirectoryUnavailable = errors.New("product directory unavailable")

type BreakerSettings struct {
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// breakerDirectory trips on infrastructure failures only. Domain answers such
// as "not found" count as successful calls.
type breakerDirectory struct {
	next ProductDirectory
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerDirectory(next ProductDirectory, s BreakerSettings, log *zap.Logger) ProductDirectory {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "product-directory",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			var de *domain.Error
			return err == nil || errors.As(err, &de) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &breakerDirectory{next: next, cb: cb}
}

func (b *breakerDirectory) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, wrapBreakerErr(err)
	}
	return v.(*domain.Product), nil
}

func (b *breakerDirectory) ProductExists(ctx context.Context, id string) (bool, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.ProductExists(ctx, id)
	})
	if err != nil {
		return false, wrapBreakerErr(err)
	}
	return v.(bool), nil
}

func wrapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}
	return err
}
