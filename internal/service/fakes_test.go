package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/events"
)

type fakeCartRepo struct {
	mu        sync.Mutex
	carts     map[string]domain.Cart
	deleteErr error
	saves     int
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[string]domain.Cart)}
}

func cloneCart(c domain.Cart) domain.Cart {
	c.Items = append([]domain.CartItem{}, c.Items...)
	return c
}

func (r *fakeCartRepo) GetCart(_ context.Context, sessionID string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *domain.Cart
	for _, c := range r.carts {
		if c.SessionID != sessionID {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			cp := cloneCart(c)
			latest = &cp
		}
	}
	if latest == nil {
		return nil, domain.ErrCartNotFound
	}
	return latest, nil
}

func (r *fakeCartRepo) CreateCart(_ context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.carts {
		if c.SessionID == cart.SessionID && c.IsActive() {
			return domain.ErrCartExists
		}
	}
	r.carts[cart.ID] = cloneCart(*cart)
	return nil
}

func (r *fakeCartRepo) SaveCart(_ context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.carts[cart.ID]
	if !ok || stored.Version != cart.Version {
		return domain.ErrCartModified
	}
	cart.Version++
	r.carts[cart.ID] = cloneCart(*cart)
	r.saves++
	return nil
}

func (r *fakeCartRepo) DeleteCart(_ context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.carts[cartID]; !ok {
		return domain.ErrCartNotFound
	}
	delete(r.carts, cartID)
	return nil
}

func (r *fakeCartRepo) ExpireStale(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, c := range r.carts {
		if c.IsActive() && c.UpdatedAt.Before(cutoff) {
			c.Status = domain.CartStatusExpired
			c.Version++
			r.carts[id] = c
			n++
		}
	}
	return n, nil
}

// put stores a cart as-is, bypassing the active-cart uniqueness check.
func (r *fakeCartRepo) put(c domain.Cart) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[c.ID] = cloneCart(c)
}

func (r *fakeCartRepo) get(id string) (domain.Cart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[id]
	return cloneCart(c), ok
}

type fakeDirectory struct {
	mu       sync.Mutex
	products map[string]domain.Product
	err      error
}

func newFakeDirectory(products ...domain.Product) *fakeDirectory {
	d := &fakeDirectory{products: make(map[string]domain.Product)}
	for _, p := range products {
		d.products[p.ID] = p
	}
	return d
}

func (d *fakeDirectory) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return nil, d.err
	}
	p, ok := d.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (d *fakeDirectory) ProductExists(ctx context.Context, id string) (bool, error) {
	_, err := d.GetProduct(ctx, id)
	if errors.Is(err, domain.ErrProductNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (d *fakeDirectory) set(p domain.Product) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.products[p.ID] = p
}

func (d *fakeDirectory) remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.products, id)
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]domain.Order)}
}

func (r *fakeOrderRepo) CreateOrder(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.OrderNumber]; ok {
		return domain.ErrOrderExists
	}
	r.orders[order.OrderNumber] = *order
	return nil
}

func (r *fakeOrderRepo) GetOrder(_ context.Context, orderNumber string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderNumber]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (r *fakeOrderRepo) UpdateOrderStatus(_ context.Context, orderNumber string, u domain.OrderStatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderNumber]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Apply(u)
	r.orders[orderNumber] = o
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// failSaveRepo fails SaveCart for one cart id.
type failSaveRepo struct {
	*fakeCartRepo
	failID string
	err    error
}

func (r *failSaveRepo) SaveCart(ctx context.Context, cart *domain.Cart) error {
	if cart.ID == r.failID {
		return r.err
	}
	return r.fakeCartRepo.SaveCart(ctx, cart)
}

// blockingCache parks the first Set until release is closed.
type blockingCache struct {
	cache.CartCache
	entered chan struct{}
	release chan struct{}
}

func newBlockingCache(c cache.CartCache) *blockingCache {
	return &blockingCache{
		CartCache: c,
		entered:   make(chan struct{}, 1),
		release:   make(chan struct{}),
	}
}

func (c *blockingCache) Set(ctx context.Context, sessionID string, gen int64, cart *domain.Cart) error {
	select {
	case c.entered <- struct{}{}:
	default:
	}
	<-c.release
	return c.CartCache.Set(ctx, sessionID, gen, cart)
}
