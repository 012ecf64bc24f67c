package cache

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
)

// CartCache holds read copies of carts keyed by session id. Every write path
// calls Delete, which also bumps the session's generation. A reader takes the
// generation before loading from storage and passes it to Set, so a copy read
// before an invalidation is never stored after it.
type CartCache interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Generation(ctx context.Context, sessionID string) (int64, error)
	// Set stores cart only if the session's generation still equals gen.
	Set(ctx context.Context, sessionID string, gen int64, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Nop is used when no Redis is configured; every Get misses.
type Nop struct{}

func (Nop) Get(context.Context, string) (*domain.Cart, error) { return nil, ErrCacheMiss }

func (Nop) Generation(context.Context, string) (int64, error) { return 0, nil }

func (Nop) Set(context.Context, string, int64, *domain.Cart) error { return nil }

func (Nop) Delete(context.Context, string) error { return nil }
