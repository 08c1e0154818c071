package service

import (
	"context"
	"time"

	"attraction-booking/internal/model"
	"attraction-booking/internal/pricing"
)

// OrderService defines the order lifecycle operations.
type OrderService interface {
	// CreateOrder prices the cart, then persists the order and its bookings
	// in one transaction with capacity enforcement.
	CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.OrderResponse, error)

	// GetOrder retrieves an order with its bookings and add-ons.
	GetOrder(ctx context.Context, id int64) (*model.OrderResponse, error)

	// ConfirmPayment applies a payment gateway result to a Pending or Failed order.
	ConfirmPayment(ctx context.Context, id int64, result model.PaymentResult) (*model.Order, error)

	// CancelOrder cancels an unpaid order and every booking under it.
	CancelOrder(ctx context.Context, id int64) (*model.Order, error)

	// ResendTicket queues ticket delivery again for a booking of a Completed order.
	ResendTicket(ctx context.Context, bookingID int64) error

	// ExpirePending cancels Pending and Failed orders untouched for the
	// pending TTL and returns how many were cancelled.
	ExpirePending(ctx context.Context) (int, error)
}

// PricingService defines the read-only pricing operations.
type PricingService interface {
	// Quote prices a cart without writing anything.
	Quote(ctx context.Context, req *model.CreateOrderRequest) (*pricing.Cart, error)

	// ListSlots lists stored and virtual slots of a target on a date with availability.
	ListSlots(ctx context.Context, targetType model.TargetType, targetID int64, date time.Time) ([]model.SlotAvailability, error)
}

// OfferService defines offer administration.
type OfferService interface {
	// CreateOffer validates and stores an offer with its rules.
	CreateOffer(ctx context.Context, req *model.CreateOfferRequest) (*model.Offer, error)

	// GetOffer retrieves an offer with its rules.
	GetOffer(ctx context.Context, id int64) (*model.Offer, error)

	// DeleteOffer removes an offer and its rules.
	DeleteOffer(ctx context.Context, id int64) error
}

// CartPricer prices carts. *pricing.Totalizer satisfies it.
type CartPricer interface {
	ComputeTotalsMulti(ctx context.Context, items []model.CartItem, couponCode string, onDate time.Time) (*pricing.Cart, error)
}

// RuleInvalidator drops cached offer rules after an offer write.
type RuleInvalidator interface {
	Invalidate(ctx context.Context) error
}
