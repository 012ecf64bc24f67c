package domain

import "fmt"

// ErrorKind classifies a domain failure. The HTTP layer maps kinds to status codes.
type ErrorKind string

const (
	KindValidation            ErrorKind = "validation"
	KindNotFound              ErrorKind = "not_found"
	KindConflict              ErrorKind = "conflict"
	KindExpired               ErrorKind = "expired"
	KindLimitExceeded         ErrorKind = "limit_exceeded"
	KindInsufficientInventory ErrorKind = "insufficient_inventory"
	KindUnavailable           ErrorKind = "unavailable"
	KindEmpty                 ErrorKind = "empty"
)

// Error is returned for every rule violation of the cart and order core.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports kind equality so that wrapped errors with a different message
// still match the sentinel of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || e.Message == t.Message)
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NewErrorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Kind-only sentinels, match any error of the kind.
var (
	ErrValidation            = &Error{Kind: KindValidation}
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrConflict              = &Error{Kind: KindConflict}
	ErrExpired               = &Error{Kind: KindExpired}
	ErrLimitExceeded         = &Error{Kind: KindLimitExceeded}
	ErrInsufficientInventory = &Error{Kind: KindInsufficientInventory}
	ErrUnavailable           = &Error{Kind: KindUnavailable}
	ErrEmpty                 = &Error{Kind: KindEmpty}
)

var (
	ErrCartNotFound      = NewError(KindNotFound, "cart not found")
	ErrCartExists        = NewError(KindConflict, "an active cart already exists for this session")
	ErrCartExpired       = NewError(KindExpired, "cart has expired")
	ErrCartNotActive     = NewError(KindConflict, "cart is not active")
	ErrCartModified      = NewError(KindConflict, "cart was modified concurrently")
	ErrCartFull          = NewErrorf(KindLimitExceeded, "cart cannot hold more than %d items", MaxCartItems)
	ErrItemQuantityLimit = NewErrorf(KindLimitExceeded, "item quantity cannot exceed %d", MaxItemQuantity)
	ErrItemNotFound      = NewError(KindNotFound, "item not found in cart")
	ErrCartEmpty         = NewError(KindEmpty, "cart is empty")
	ErrSameCart          = NewError(KindValidation, "source and target carts must differ")

	ErrProductNotFound       = NewError(KindNotFound, "product not found")
	ErrProductUnavailable    = NewError(KindUnavailable, "product is not available")
	ErrInsufficientStock     = NewError(KindInsufficientInventory, "insufficient inventory")
	ErrInvalidQuantity       = NewErrorf(KindValidation, "quantity must be between 1 and %d", MaxItemQuantity)
	ErrOrderNotFound         = NewError(KindNotFound, "order not found")
	ErrOrderExists           = NewError(KindConflict, "order number already exists")
	ErrInvalidOrderStatus    = NewError(KindValidation, "invalid order status")
	ErrInvalidPaymentStatus  = NewError(KindValidation, "invalid payment status")
	ErrSessionIDRequired     = NewError(KindValidation, "sessionId is required")
	ErrProductIDRequired     = NewError(KindValidation, "productId is required")
	ErrOrderNumberIsRequired = NewError(KindValidation, "orderNumber is required")
)
