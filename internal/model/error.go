package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain failures for callers and the HTTP layer.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindCapacityConflict  ErrorKind = "capacity_conflict"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindPaymentGateway    ErrorKind = "payment_gateway"
	KindNotification      ErrorKind = "notification"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeInvalidCartItem    = "INVALID_CART_ITEM"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeInvalidSlot        = "INVALID_SLOT"
	ErrCodeInvalidCoupon      = "INVALID_COUPON"
	ErrCodeInvalidOffer       = "INVALID_OFFER"
	ErrCodeAttractionNotFound = "ATTRACTION_NOT_FOUND"
	ErrCodeComboNotFound      = "COMBO_NOT_FOUND"
	ErrCodeAddonNotFound      = "ADDON_NOT_FOUND"
	ErrCodeSlotNotFound       = "SLOT_NOT_FOUND"
	ErrCodeOfferNotFound      = "OFFER_NOT_FOUND"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeBookingNotFound    = "BOOKING_NOT_FOUND"
	ErrCodeSlotFull           = "SLOT_CAPACITY_EXCEEDED"
	ErrCodeOrderState         = "INVALID_ORDER_STATE"
	ErrCodeAmountMismatch     = "PAYMENT_AMOUNT_MISMATCH"
	ErrCodeGatewayFailure     = "PAYMENT_GATEWAY_FAILURE"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// DomainError is a classified business failure.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches another DomainError with the same Kind and Code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Validation creates a validation error with a formatted message.
func Validation(code, format string, args ...any) *DomainError {
	return NewDomainError(KindValidation, code, fmt.Sprintf(format, args...))
}

// NotFound creates a not-found error with a formatted message.
func NotFound(code, format string, args ...any) *DomainError {
	return NewDomainError(KindNotFound, code, fmt.Sprintf(format, args...))
}

// CapacityConflict creates a capacity error for a slot.
func CapacityConflict(slotID int64, capacity, booked, requested int) *DomainError {
	return NewDomainError(KindCapacityConflict, ErrCodeSlotFull,
		fmt.Sprintf("slot %d has %d of %d places left, %d requested", slotID, max(capacity-booked, 0), capacity, requested))
}

// InvalidTransition creates an order state-machine error.
func InvalidTransition(from, to PaymentStatus) *DomainError {
	return NewDomainError(KindInvalidTransition, ErrCodeOrderState,
		fmt.Sprintf("order cannot move from %s to %s", from, to))
}

// KindOf returns the kind of a DomainError anywhere in err's chain, or "".
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// Common domain errors
var (
	ErrInvalidQuantity = NewDomainError(KindValidation, ErrCodeInvalidQuantity, "Quantity must be at least one")
	ErrOrderNotFound   = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrBookingNotFound = NewDomainError(KindNotFound, ErrCodeBookingNotFound, "Booking not found")
	ErrOfferNotFound   = NewDomainError(KindNotFound, ErrCodeOfferNotFound, "Offer not found")
	ErrAmountMismatch  = NewDomainError(KindValidation, ErrCodeAmountMismatch, "Paid amount does not match the order total")
)
