package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/events"
	"github.com/fjod/storefront/internal/pricing"
	"github.com/fjod/storefront/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateOrderInput struct {
	SessionID     string           `json:"sessionId" validate:"required"`
	Customer      *domain.Customer `json:"customer" validate:"required"`
	PaymentMethod string           `json:"paymentMethod" validate:"required"`
	Shipping      *domain.Shipping `json:"shipping" validate:"required"`
}

type OrderService struct {
	orders   repository.OrderRepository
	carts    *CartService
	events   events.Publisher
	log      *zap.Logger
	now      func() time.Time
	numbers  *OrderNumbers
	validate *validator.Validate
}

// NewOrderService shares the cart service's clock so that expiry and order
// timestamps agree.
func NewOrderService(orders repository.OrderRepository, carts *CartService, publisher events.Publisher, log *zap.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		carts:    carts,
		events:   publisher,
		log:      log,
		now:      carts.now,
		numbers:  &OrderNumbers{},
		validate: newValidator(),
	}
}

// CreateOrder converts the session's active cart into an order and deletes the
// cart. The two writes are not atomic: once the order is stored it stands,
// and a failed cart delete is only logged.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	cart, err := s.carts.activeCart(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, domain.ErrCartEmpty
	}

	items := make([]domain.OrderItem, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = domain.OrderItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	totals := pricing.OrderTotals(items, in.Shipping.Cost)

	now := s.now()
	order := &domain.Order{
		ID:            uuid.NewString(),
		OrderNumber:   s.numbers.Next(now),
		SessionID:     in.SessionID,
		Customer:      *in.Customer,
		Items:         items,
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		Shipping:      *in.Shipping,
		Total:         totals.Total,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: in.PaymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	if err := s.carts.retire(ctx, cart); err != nil {
		s.log.Warn("order created but cart was not deleted",
			zap.String("order_number", order.OrderNumber),
			zap.String("cart_id", cart.ID),
			zap.Error(err))
	}

	s.publish(ctx, events.TypeOrderCreated, order)

	s.log.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("session_id", order.SessionID),
		zap.Float64("total", order.Total))
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	if orderNumber == "" {
		return nil, domain.ErrOrderNumberIsRequired
	}
	return s.orders.GetOrder(ctx, orderNumber)
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderNumber string, status domain.OrderStatus) (*domain.Order, error) {
	if orderNumber == "" {
		return nil, domain.ErrOrderNumberIsRequired
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidOrderStatus
	}

	order, err := s.orders.GetOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	update := order.WithStatus(status, s.now())
	if err := s.orders.UpdateOrderStatus(ctx, orderNumber, update); err != nil {
		return nil, err
	}
	order.Apply(update)

	s.publish(ctx, events.TypeOrderStatusChanged, order)
	return order, nil
}

func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderNumber string, status domain.PaymentStatus) (*domain.Order, error) {
	if orderNumber == "" {
		return nil, domain.ErrOrderNumberIsRequired
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidPaymentStatus
	}

	order, err := s.orders.GetOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	update := order.WithPaymentStatus(status, s.now())
	if err := s.orders.UpdateOrderStatus(ctx, orderNumber, update); err != nil {
		return nil, err
	}
	order.Apply(update)

	s.publish(ctx, events.TypeOrderPaymentStatusChanged, order)
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *domain.Order) {
	if err := s.events.Publish(ctx, events.NewOrderEvent(eventType, order, order.UpdatedAt)); err != nil {
		s.log.Warn("failed to publish order event",
			zap.String("event_type", eventType),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
	}
}

// OrderNumbers issues "ORD-<unix millis>-<suffix>" numbers. The millisecond
// part never repeats or goes backwards within a process.
type OrderNumbers struct {
	mu   sync.Mutex
	last int64
}

func (g *OrderNumbers) Next(now time.Time) string {
	g.mu.Lock()
	ms := now.UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%d-%s", ms, suffix)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError reports the first failing field by its JSON path.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewError(domain.KindValidation, err.Error())
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return domain.NewErrorf(domain.KindValidation, "%s is required", field)
	case "email":
		return domain.NewErrorf(domain.KindValidation, "%s must be a valid email", field)
	case "gte":
		return domain.NewErrorf(domain.KindValidation, "%s must be at least %s", field, fe.Param())
	}
	return domain.NewErrorf(domain.KindValidation, "%s is invalid", field)
}
