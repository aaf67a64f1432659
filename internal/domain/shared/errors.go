package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInvalidTransition   = NewDomainError("INVALID_TRANSITION", "Status transition is not allowed")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrEmptyCart           = NewDomainError("EMPTY_CART", "Cart has no items")
	ErrInvalidAddress      = NewDomainError("INVALID_ADDRESS", "Address is missing or invalid")
	ErrInvalidCoupon       = NewDomainError("INVALID_COUPON", "Coupon is expired or invalid")
	ErrCouponMinimumNotMet = NewDomainError("COUPON_MINIMUM_NOT_MET", "Cart subtotal is below the coupon minimum")
	ErrNegativeAmount      = NewDomainError("NEGATIVE_AMOUNT", "Operation would produce a negative amount")
	ErrPaymentFailed       = NewDomainError("PAYMENT_FAILED", "Payment could not be processed")
)
