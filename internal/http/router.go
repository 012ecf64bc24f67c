package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Carts              CartService
	Orders             OrderService
	Logger             *zap.Logger
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	// Health reports backing store reachability; nil means always healthy.
	Health func(ctx context.Context) error
	// Clock stamps response envelopes; nil means time.Now in UTC.
	Clock func() time.Time
}

// NewRouter mounts the cart and order API under /api/v1.
func NewRouter(cfg RouterConfig) http.Handler {
	cartHandler := NewCartHandler(cfg.Carts, cfg.RequestTimeout, cfg.Clock)
	ordersHandler := NewOrdersHandler(cfg.Orders, cfg.RequestTimeout, cfg.Clock)
	res := newResponder(cfg.Clock)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(BodyLimit(cfg.MaxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(r.Context()); err != nil {
				res.respondError(w, r, http.StatusServiceUnavailable, "service_unavailable", err.Error())
				return
			}
		}
		res.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Post("/", cartHandler.CreateCart)
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{itemId}", cartHandler.UpdateQuantity)
				r.Delete("/items/{itemId}", cartHandler.RemoveItem)
				r.Post("/merge", cartHandler.MergeCart)
				r.Post("/abandon", cartHandler.AbandonCart)
			})
		})
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordersHandler.CreateOrder)
			r.Get("/{orderNumber}", ordersHandler.GetOrder)
			r.Put("/{orderNumber}/status", ordersHandler.UpdateStatus)
			r.Put("/{orderNumber}/payment-status", ordersHandler.UpdatePaymentStatus)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
