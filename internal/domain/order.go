package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusProcessing    PaymentStatus = "processing"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusFailed        PaymentStatus = "failed"
	PaymentStatusRefunded      PaymentStatus = "refunded"
	PaymentStatusRefundPending PaymentStatus = "refund_pending"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusPaid,
		PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusRefundPending:
		return true
	}
	return false
}

type Address struct {
	Street     string `bson:"street" json:"street" validate:"required"`
	City       string `bson:"city" json:"city" validate:"required"`
	State      string `bson:"state,omitempty" json:"state,omitempty"`
	PostalCode string `bson:"postal_code" json:"postalCode" validate:"required"`
	Country    string `bson:"country" json:"country" validate:"required"`
}

type Customer struct {
	Name    string   `bson:"name" json:"name" validate:"required"`
	Email   string   `bson:"email" json:"email" validate:"required,email"`
	Phone   string   `bson:"phone,omitempty" json:"phone,omitempty"`
	Address *Address `bson:"address,omitempty" json:"address,omitempty" validate:"omitempty"`
}

type Shipping struct {
	Method string  `bson:"method" json:"method" validate:"required"`
	Cost   float64 `bson:"cost" json:"cost" validate:"gte=0"`
}

// OrderItem is a frozen copy of a cart line taken at conversion time.
type OrderItem struct {
	ProductID string  `bson:"product_id" json:"productId"`
	VariantID string  `bson:"variant_id,omitempty" json:"variantId,omitempty"`
	Name      string  `bson:"name,omitempty" json:"name,omitempty"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	UnitPrice float64 `bson:"unit_price" json:"unitPrice"`
}

type Order struct {
	ID            string        `bson:"_id" json:"id"`
	OrderNumber   string        `bson:"order_number" json:"orderNumber"`
	SessionID     string        `bson:"session_id" json:"sessionId"`
	Customer      Customer      `bson:"customer" json:"customer"`
	Items         []OrderItem   `bson:"items" json:"items"`
	Subtotal      float64       `bson:"subtotal" json:"subtotal"`
	Tax           float64       `bson:"tax" json:"tax"`
	Shipping      Shipping      `bson:"shipping" json:"shipping"`
	Total         float64       `bson:"total" json:"total"`
	Status        OrderStatus   `bson:"status" json:"status"`
	PaymentStatus PaymentStatus `bson:"payment_status" json:"paymentStatus"`
	PaymentMethod string        `bson:"payment_method" json:"paymentMethod"`
	CreatedAt     time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updated_at" json:"updatedAt"`
}

// OrderStatusUpdate is the only mutation an order accepts after creation.
type OrderStatusUpdate struct {
	Status        OrderStatus   `bson:"status"`
	PaymentStatus PaymentStatus `bson:"payment_status"`
	UpdatedAt     time.Time     `bson:"updated_at"`
}

// WithStatus applies a status change and its cross-field side effect.
// Cancelling a paid order puts the payment back to pending; the refund is
// tracked outside this service.
func (o Order) WithStatus(status OrderStatus, now time.Time) OrderStatusUpdate {
	u := OrderStatusUpdate{Status: status, PaymentStatus: o.PaymentStatus, UpdatedAt: now}
	if status == OrderStatusCancelled && o.PaymentStatus == PaymentStatusPaid {
		u.PaymentStatus = PaymentStatusPending
	}
	return u
}

// WithPaymentStatus applies a payment status change. A payment confirmed on a
// pending order moves the order to processing.
func (o Order) WithPaymentStatus(status PaymentStatus, now time.Time) OrderStatusUpdate {
	u := OrderStatusUpdate{Status: o.Status, PaymentStatus: status, UpdatedAt: now}
	if status == PaymentStatusPaid && o.Status == OrderStatusPending {
		u.Status = OrderStatusProcessing
	}
	return u
}

func (o *Order) Apply(u OrderStatusUpdate) {
	o.Status = u.Status
	o.PaymentStatus = u.PaymentStatus
	o.UpdatedAt = u.UpdatedAt
}
