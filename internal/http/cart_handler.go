package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type CartService interface {
	CreateCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, in service.AddItemInput) (*domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	MergeCarts(ctx context.Context, sourceSessionID, targetSessionID string) (*domain.Cart, error)
	AbandonCart(ctx context.Context, sessionID string) (*domain.Cart, error)
}

type CartHandler struct {
	responder
	carts   CartService
	timeout time.Duration
}

// NewCartHandler stamps responses with clock; nil means time.Now in UTC.
func NewCartHandler(carts CartService, timeout time.Duration, clock func() time.Time) *CartHandler {
	return &CartHandler{
		responder: newResponder(clock),
		carts:     carts,
		timeout:   timeout,
	}
}

type CreateCartRequestDTO struct {
	SessionID string `json:"sessionId"`
}

type AddItemRequestDTO struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type MergeCartRequestDTO struct {
	SourceSessionID string `json:"sourceSessionId"`
}

func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateCartRequestDTO
	if !h.decodeJSON(w, r, &req) {
		return
	}

	cart, err := h.carts.CreateCart(ctx, req.SessionID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, cart)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.GetCart(ctx, chi.URLParam(r, "sessionId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !h.decodeJSON(w, r, &req) {
		return
	}

	cart, err := h.carts.AddItem(ctx, service.AddItemInput{
		SessionID: chi.URLParam(r, "sessionId"),
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, cart)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if !h.decodeJSON(w, r, &req) {
		return
	}

	cart, err := h.carts.UpdateItemQuantity(ctx, chi.URLParam(r, "sessionId"), chi.URLParam(r, "itemId"), req.Quantity)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.RemoveItem(ctx, chi.URLParam(r, "sessionId"), chi.URLParam(r, "itemId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.ClearCart(ctx, chi.URLParam(r, "sessionId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, cart)
}

// MergeCart folds the body's source cart into the cart named in the path.
func (h *CartHandler) MergeCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req MergeCartRequestDTO
	if !h.decodeJSON(w, r, &req) {
		return
	}

	cart, err := h.carts.MergeCarts(ctx, req.SourceSessionID, chi.URLParam(r, "sessionId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, cart)
}

func (h *CartHandler) AbandonCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.AbandonCart(ctx, chi.URLParam(r, "sessionId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, cart)
}
