package repository

import (
	"context"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

const (
	cartsCollection  = "carts"
	ordersCollection = "orders"
)

// CartRepository defines the interface for cart data operations
type CartRepository interface {
	// GetCart returns the most recent cart for the session, whatever its status.
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	// CreateCart inserts a new cart. Returns domain.ErrCartExists when the
	// session already has an active cart.
	CreateCart(ctx context.Context, cart *domain.Cart) error
	// SaveCart replaces the cart if its version is unchanged in storage and
	// increments cart.Version. Returns domain.ErrCartModified otherwise.
	SaveCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, cartID string) error
	// ExpireStale marks active carts not updated since cutoff as expired.
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderNumber string, update domain.OrderStatusUpdate) error
}
