package service

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/pricing"
	"github.com/fjod/storefront/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CartService owns cart state transitions. Expiration is enforced lazily:
// a cart past CartTTL stays active in storage until the next read or write
// touches it (or the optional sweeper runs).
type CartService struct {
	repo     repository.CartRepository
	cache    cache.CartCache
	products catalog.ProductDirectory
	log      *zap.Logger
	now      func() time.Time
	sfg      singleflight.Group // collapses concurrent reads of one session
}

type Option func(*CartService)

// WithClock overrides time.Now, used by tests to age carts.
func WithClock(now func() time.Time) Option {
	return func(s *CartService) { s.now = now }
}

func NewCartService(repo repository.CartRepository, c cache.CartCache, products catalog.ProductDirectory, log *zap.Logger, opts ...Option) *CartService {
	s := &CartService{
		repo:     repo,
		cache:    c,
		products: products,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type AddItemInput struct {
	SessionID string
	ProductID string
	VariantID string
	Quantity  int
}

// CreateCart starts a new active cart for the session. An unexpired active
// cart blocks creation; an expired one is retired first.
func (s *CartService) CreateCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionIDRequired
	}
	now := s.now()

	existing, err := s.repo.GetCart(ctx, sessionID)
	switch {
	case err == nil && existing.IsActive():
		if !existing.IsExpiredAt(now) {
			return nil, domain.ErrCartExists
		}
		if err := s.expire(ctx, existing); err != nil {
			return nil, err
		}
	case err != nil && !errors.Is(err, domain.ErrCartNotFound):
		return nil, err
	}

	cart := &domain.Cart{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Items:     []domain.CartItem{},
		Status:    domain.CartStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateCart(ctx, cart); err != nil {
		return nil, err
	}
	s.invalidateCache(sessionID)

	s.log.Info("cart created", zap.String("session_id", sessionID), zap.String("cart_id", cart.ID))
	return cart, nil
}

// GetCart returns the session's cart. Active carts are checked for expiry
// and stripped of lines whose product vanished, was deactivated, or no longer
// has the requested quantity on hand.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionIDRequired
	}

	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		cart, gen, cached, err := s.readCart(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		now := s.now()
		if cached && cart.IsExpiredAt(now) {
			// the sweeper expires carts behind the cache, so the stored
			// version may be ahead of the cached one
			s.invalidateCache(sessionID)
			if cart, gen, err = s.loadCart(ctx, sessionID); err != nil {
				return nil, err
			}
			cached = false
		}

		if cart.IsExpiredAt(now) {
			if cart.IsActive() {
				if err := s.expire(ctx, cart); err != nil {
					return nil, err
				}
			}
			return nil, domain.ErrCartExpired
		}
		if !cart.IsActive() {
			return cart, nil
		}

		changed, err := s.heal(ctx, cart)
		if err != nil {
			return nil, err
		}
		if changed {
			if err := s.persist(ctx, cart); err != nil {
				return nil, err
			}
		} else if !cached {
			s.fillCache(gen, cart)
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *CartService) AddItem(ctx context.Context, in AddItemInput) (*domain.Cart, error) {
	switch {
	case in.SessionID == "":
		return nil, domain.ErrSessionIDRequired
	case in.ProductID == "":
		return nil, domain.ErrProductIDRequired
	case !domain.ValidQuantity(in.Quantity):
		return nil, domain.ErrInvalidQuantity
	}

	cart, err := s.activeCart(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) >= domain.MaxCartItems {
		return nil, domain.ErrCartFull
	}
	if !product.IsActive {
		return nil, domain.ErrProductUnavailable
	}
	if product.Inventory.Available() < in.Quantity {
		return nil, domain.ErrInsufficientStock
	}

	now := s.now()
	if i := cart.FindLine(in.ProductID, in.VariantID); i >= 0 {
		merged := cart.Items[i].Quantity + in.Quantity
		if merged > domain.MaxItemQuantity {
			return nil, domain.ErrItemQuantityLimit
		}
		cart.Items[i].Quantity = merged
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:        uuid.NewString(),
			ProductID: product.ID,
			VariantID: in.VariantID,
			Name:      product.Name,
			Quantity:  in.Quantity,
			UnitPrice: product.Price,
			AddedAt:   now,
		})
	}
	cart.UpdatedAt = now

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*domain.Cart, error) {
	if !domain.ValidQuantity(quantity) {
		return nil, domain.ErrInvalidQuantity
	}

	cart, err := s.activeCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	i := cart.FindItem(itemID)
	if i < 0 {
		return nil, domain.ErrItemNotFound
	}

	product, err := s.products.GetProduct(ctx, cart.Items[i].ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, domain.ErrProductUnavailable
	}
	if product.Inventory.Available() < quantity {
		return nil, domain.ErrInsufficientStock
	}

	cart.Items[i].Quantity = quantity
	cart.UpdatedAt = s.now()

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, itemID string) (*domain.Cart, error) {
	cart, err := s.activeCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	i := cart.FindItem(itemID)
	if i < 0 {
		return nil, domain.ErrItemNotFound
	}

	cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
	cart.UpdatedAt = s.now()

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) ClearCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.activeCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart.Items = []domain.CartItem{}
	cart.UpdatedAt = s.now()

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// AbandonCart retires an active cart without converting it.
func (s *CartService) AbandonCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.activeCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart.Status = domain.CartStatusAbandoned
	cart.UpdatedAt = s.now()

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// MergeCarts moves the source cart's lines into the target. Unlike AddItem,
// merging never fails on limits: quantities are clamped to MaxItemQuantity and
// new lines beyond MaxCartItems are dropped.
func (s *CartService) MergeCarts(ctx context.Context, sourceSessionID, targetSessionID string) (*domain.Cart, error) {
	if sourceSessionID == "" || targetSessionID == "" {
		return nil, domain.ErrSessionIDRequired
	}
	if sourceSessionID == targetSessionID {
		return nil, domain.ErrSameCart
	}

	source, err := s.activeCart(ctx, sourceSessionID)
	if err != nil {
		return nil, err
	}
	target, err := s.activeCart(ctx, targetSessionID)
	if err != nil {
		return nil, err
	}

	var clamped, skipped int
	for _, item := range source.Items {
		if i := target.FindLine(item.ProductID, item.VariantID); i >= 0 {
			q := target.Items[i].Quantity + item.Quantity
			if q > domain.MaxItemQuantity {
				clamped++
				q = domain.MaxItemQuantity
			}
			target.Items[i].Quantity = q
			continue
		}
		if len(target.Items) >= domain.MaxCartItems {
			skipped++
			continue
		}
		target.Items = append(target.Items, item)
	}

	// The source is retired first so a failed merge never leaves its lines
	// counted in both carts. If the target save fails the source is restored.
	now := s.now()
	sourceUpdatedAt := source.UpdatedAt
	source.Status = domain.CartStatusMerged
	source.UpdatedAt = now
	if err := s.persist(ctx, source); err != nil {
		return nil, err
	}

	target.UpdatedAt = now
	if err := s.persist(ctx, target); err != nil {
		source.Status = domain.CartStatusActive
		source.UpdatedAt = sourceUpdatedAt
		if rerr := s.persist(ctx, source); rerr != nil {
			s.log.Error("failed to restore merge source",
				zap.String("source_session_id", sourceSessionID),
				zap.String("target_session_id", targetSessionID),
				zap.Error(rerr))
		}
		return nil, err
	}

	s.log.Info("carts merged",
		zap.String("source_session_id", sourceSessionID),
		zap.String("target_session_id", targetSessionID),
		zap.Int("clamped_lines", clamped),
		zap.Int("skipped_lines", skipped))
	return target, nil
}

// activeCart loads the cart from storage (never the cache) and requires it
// to be active and unexpired.
func (s *CartService) activeCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionIDRequired
	}

	cart, err := s.repo.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if cart.IsExpiredAt(s.now()) {
		if cart.IsActive() {
			if err := s.expire(ctx, cart); err != nil {
				return nil, err
			}
		}
		return nil, domain.ErrCartExpired
	}
	if !cart.IsActive() {
		return nil, domain.ErrCartNotActive
	}
	return cart, nil
}

// retire removes a converted cart.
func (s *CartService) retire(ctx context.Context, cart *domain.Cart) error {
	defer s.invalidateCache(cart.SessionID)
	return s.repo.DeleteCart(ctx, cart.ID)
}

// expire persists status=expired without touching UpdatedAt.
func (s *CartService) expire(ctx context.Context, cart *domain.Cart) error {
	cart.Status = domain.CartStatusExpired
	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return err
	}
	s.invalidateCache(cart.SessionID)

	s.log.Info("cart expired", zap.String("session_id", cart.SessionID), zap.Time("updated_at", cart.UpdatedAt))
	return nil
}

func (s *CartService) heal(ctx context.Context, cart *domain.Cart) (bool, error) {
	kept := make([]domain.CartItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.products.GetProduct(ctx, item.ProductID)
		if errors.Is(err, domain.ErrProductNotFound) {
			s.logDropped(cart, item, "product not found")
			continue
		}
		if err != nil {
			return false, err
		}
		if !product.IsActive {
			s.logDropped(cart, item, "product inactive")
			continue
		}
		if product.Inventory.Quantity < item.Quantity {
			s.logDropped(cart, item, "insufficient quantity on hand")
			continue
		}
		kept = append(kept, item)
	}

	if len(kept) == len(cart.Items) {
		return false, nil
	}
	cart.Items = kept
	return true, nil
}

func (s *CartService) logDropped(cart *domain.Cart, item domain.CartItem, reason string) {
	s.log.Info("dropping cart item",
		zap.String("session_id", cart.SessionID),
		zap.String("item_id", item.ID),
		zap.String("product_id", item.ProductID),
		zap.String("reason", reason))
}

// persist recomputes totals and saves the cart. Totals are never saved
// without being derived from the items being saved.
func (s *CartService) persist(ctx context.Context, cart *domain.Cart) error {
	cart.Totals = pricing.CartTotals(cart.Items)
	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return err
	}
	s.invalidateCache(cart.SessionID)
	return nil
}

// readCart prefers the cache. On a miss it returns the cache generation read
// before the storage load, or noGeneration when the cache is unreachable.
func (s *CartService) readCart(ctx context.Context, sessionID string) (*domain.Cart, int64, bool, error) {
	cart, err := s.cache.Get(ctx, sessionID)
	if err == nil {
		return cart, noGeneration, true, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("cache get error", zap.String("session_id", sessionID), zap.Error(err))
		cart, err = s.repo.GetCart(ctx, sessionID)
		return cart, noGeneration, false, err
	}

	cart, gen, err := s.loadCart(ctx, sessionID)
	return cart, gen, false, err
}

// loadCart reads from storage, taking the cache generation first so a fill
// from this read loses to any invalidation that lands after it.
func (s *CartService) loadCart(ctx context.Context, sessionID string) (*domain.Cart, int64, error) {
	gen, err := s.cache.Generation(ctx, sessionID)
	if err != nil {
		s.log.Warn("cache generation error", zap.String("session_id", sessionID), zap.Error(err))
		gen = noGeneration
	}

	cart, err := s.repo.GetCart(ctx, sessionID)
	if err != nil {
		return nil, noGeneration, err
	}
	return cart, gen, nil
}

// noGeneration marks a read whose result must not be cached.
const noGeneration int64 = -1

// fillCache runs before GetCart returns, so concurrent callers sharing the
// flight never race a later write into the cache.
func (s *CartService) fillCache(gen int64, cart *domain.Cart) {
	if gen == noGeneration {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, cart.SessionID, gen, cart); err != nil {
		s.log.Warn("cache set error", zap.String("session_id", cart.SessionID), zap.Error(err))
	}
}

func (s *CartService) invalidateCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.log.Warn("cache invalidate error", zap.String("session_id", sessionID), zap.Error(err))
	}
}
