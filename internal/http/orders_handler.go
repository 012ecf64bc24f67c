package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type OrderService interface {
	CreateOrder(ctx context.Context, in service.CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderNumber string, status domain.OrderStatus) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderNumber string, status domain.PaymentStatus) (*domain.Order, error)
}

type OrdersHandler struct {
	responder
	orders  OrderService
	timeout time.Duration
}

// NewOrdersHandler stamps responses with clock; nil means time.Now in UTC.
func NewOrdersHandler(orders OrderService, timeout time.Duration, clock func() time.Time) *OrdersHandler {
	return &OrdersHandler{
		responder: newResponder(clock),
		orders:    orders,
		timeout:   timeout,
	}
}

type UpdateStatusRequestDTO struct {
	Status domain.OrderStatus `json:"status"`
}

type UpdatePaymentStatusRequestDTO struct {
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
}

// POST /api/v1/orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.CreateOrderInput
	if !h.decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.CreateOrder(ctx, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, order)
}

// GET /api/v1/orders/{orderNumber}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "orderNumber"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, order)
}

// PUT /api/v1/orders/{orderNumber}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateStatusRequestDTO
	if !h.decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(ctx, chi.URLParam(r, "orderNumber"), req.Status)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, order)
}

// PUT /api/v1/orders/{orderNumber}/payment-status
func (h *OrdersHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdatePaymentStatusRequestDTO
	if !h.decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.UpdatePaymentStatus(ctx, chi.URLParam(r, "orderNumber"), req.PaymentStatus)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, order)
}
