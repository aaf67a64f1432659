package dto

import "net/http"

// Transport-level error codes. Domain error codes come through verbatim
// from the domain layer and are mapped to statuses below.
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// domainCodeHTTPStatus maps domain error codes to HTTP statuses.
// Input validation failures are 400; state and business rule
// violations are 422; lookup misses are 404; write races are 409.
var domainCodeHTTPStatus = map[string]int{
	// lookup misses
	"NOT_FOUND":      http.StatusNotFound,
	"ITEM_NOT_FOUND": http.StatusNotFound,
	"UNKNOWN_VENDOR": http.StatusNotFound,

	// conflicts
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// input validation
	"BAD_REQUEST":            http.StatusBadRequest,
	"INVALID_INPUT":          http.StatusBadRequest,
	"INVALID_QUANTITY":       http.StatusBadRequest,
	"INVALID_PRICE":          http.StatusBadRequest,
	"INVALID_AMOUNT":         http.StatusBadRequest,
	"NEGATIVE_AMOUNT":        http.StatusBadRequest,
	"INVALID_EMAIL":          http.StatusBadRequest,
	"INVALID_NAME":           http.StatusBadRequest,
	"INVALID_RATE":           http.StatusBadRequest,
	"INVALID_PERCENT":        http.StatusBadRequest,
	"INVALID_ADDRESS":        http.StatusBadRequest,
	"INVALID_PAYMENT_METHOD": http.StatusBadRequest,
	"INVALID_CODE":           http.StatusBadRequest,
	"INVALID_COUPON":         http.StatusBadRequest,
	"INVALID_PERIOD":         http.StatusBadRequest,
	"INVALID_OWNER":          http.StatusBadRequest,
	"INVALID_VARIANT":        http.StatusBadRequest,
	"INVALID_VENDOR":         http.StatusBadRequest,
	"INVALID_ACCOUNT":        http.StatusBadRequest,
	"INVALID_ORDER_NUMBER":   http.StatusBadRequest,
	"INVALID_DISCOUNT":       http.StatusBadRequest,
	"INVALID_SPLIT":          http.StatusBadRequest,
	"NOTES_REQUIRED":         http.StatusBadRequest,

	// business rules
	"INSUFFICIENT_STOCK":     http.StatusUnprocessableEntity,
	"INVALID_STATE":          http.StatusUnprocessableEntity,
	"INVALID_TRANSITION":     http.StatusUnprocessableEntity,
	"INVALID_PAYMENT_STATE":  http.StatusUnprocessableEntity,
	"CART_EXPIRED":           http.StatusUnprocessableEntity,
	"EMPTY_CART":             http.StatusUnprocessableEntity,
	"EMPTY_PAYOUT":           http.StatusUnprocessableEntity,
	"NO_PAYABLE_EARNINGS":    http.StatusUnprocessableEntity,
	"NO_COD_ORDERS":          http.StatusUnprocessableEntity,
	"HOLDBACK_ACTIVE":        http.StatusUnprocessableEntity,
	"COUPON_MINIMUM_NOT_MET": http.StatusUnprocessableEntity,
	"VENDOR_INACTIVE":        http.StatusUnprocessableEntity,
	"REFUND_EXCEEDS_TOTAL":   http.StatusUnprocessableEntity,
	"FEE_EXCEEDS_AMOUNT":     http.StatusUnprocessableEntity,
	"PAYMENT_FAILED":         http.StatusUnprocessableEntity,

	// auth
	"UNAUTHORIZED": http.StatusUnauthorized,
	"FORBIDDEN":    http.StatusForbidden,

	"INTERNAL_ERROR":      http.StatusInternalServerError,
	"INVARIANT_VIOLATION": http.StatusInternalServerError,
}

// GetHTTPStatus resolves the status for a domain error code. Unknown
// codes fall back to 422: a DomainError is a rejected operation, not a
// server fault.
func GetHTTPStatus(code string) int {
	if status, ok := domainCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}
