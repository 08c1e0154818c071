package repository

import (
	"context"
	"time"

	"attraction-booking/internal/model"

	"github.com/jackc/pgx/v5"
)

// CatalogRepository reads the sellable products. Getters return nil, nil
// when the row does not exist.
type CatalogRepository interface {
	// GetAttraction retrieves an attraction by ID.
	GetAttraction(ctx context.Context, id int64) (*model.Attraction, error)

	// GetCombo retrieves a combo with its attraction list and price shares.
	GetCombo(ctx context.Context, id int64) (*model.Combo, error)

	// GetAddon retrieves an add-on by ID.
	GetAddon(ctx context.Context, id int64) (*model.Addon, error)

	// GetSlot retrieves a stored attraction or combo slot by ID.
	GetSlot(ctx context.Context, targetType model.TargetType, id int64) (*model.Slot, error)

	// ListSlots retrieves the stored slots of a target on a date, ordered by start time.
	ListSlots(ctx context.Context, targetType model.TargetType, targetID int64, date time.Time) ([]model.Slot, error)
}

// SlotRepository is the capacity store behind the Capacity Guard.
type SlotRepository interface {
	// LockForUpdate locks a stored slot row for the rest of tx. It returns
	// nil, nil when the slot does not exist.
	LockForUpdate(ctx context.Context, tx pgx.Tx, targetType model.TargetType, id int64) (*model.Slot, error)

	// BookedQuantity sums the quantities of non-cancelled bookings on a slot,
	// read inside tx after the slot is locked.
	BookedQuantity(ctx context.Context, tx pgx.Tx, targetType model.TargetType, id int64) (int, error)

	// GetSlotAvailability returns capacity and booked quantity outside a transaction.
	GetSlotAvailability(ctx context.Context, targetType model.TargetType, id int64) (capacity, booked int, err error)

	// BookedBySlot sums non-cancelled booking quantities for several slots at once.
	BookedBySlot(ctx context.Context, targetType model.TargetType, ids []int64) (map[int64]int, error)
}

// OfferRepository stores offers, their rules and the dynamic pricing rules.
type OfferRepository interface {
	// ApplicableRules returns every rule of an active offer for a target type,
	// joined with its offer. Date and time filtering happens in the matcher.
	ApplicableRules(ctx context.Context, targetType model.TargetType) ([]model.ApplicableRule, error)

	// DynamicRules returns the active dynamic pricing rules for a target type.
	DynamicRules(ctx context.Context, targetType model.TargetType) ([]model.DynamicPricingRule, error)

	// Create inserts an offer and its rules in one transaction, filling IDs.
	Create(ctx context.Context, offer *model.Offer) error

	// GetByID retrieves an offer with its rules.
	GetByID(ctx context.Context, id int64) (*model.Offer, error)

	// Delete removes an offer and, by cascade, its rules. It reports whether a row was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}

// OrderRepository defines the interface for order and booking data access.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts an order within tx and fills ID and timestamps.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateBooking inserts a booking within tx and fills ID and CreatedAt.
	CreateBooking(ctx context.Context, tx pgx.Tx, booking *model.Booking) error

	// CreateBookingAddons inserts add-on snapshots within tx.
	CreateBookingAddons(ctx context.Context, tx pgx.Tx, addons []model.BookingAddon) error

	// GetByID retrieves an order with its bookings and their add-ons.
	GetByID(ctx context.Context, id int64) (*model.Order, []model.Booking, error)

	// GetForUpdate locks an order row within tx.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Order, error)

	// UpdatePayment sets the order payment state and mirrors it onto every
	// booking of the order. A non-nil bookingStatus is applied to them too.
	UpdatePayment(ctx context.Context, tx pgx.Tx, id int64, update model.PaymentUpdate) error

	// ListExpiredUnpaid returns IDs of Pending or Failed orders last updated
	// before cutoff. Their bookings still hold slot capacity.
	ListExpiredUnpaid(ctx context.Context, cutoff time.Time, limit int) ([]int64, error)
}

// BookingRepository reads single bookings and records fulfilment progress.
type BookingRepository interface {
	// GetByID retrieves a booking, or nil, nil.
	GetByID(ctx context.Context, id int64) (*model.Booking, error)

	// SetTicket records the generated ticket location.
	SetTicket(ctx context.Context, id int64, location string) error

	// MarkWhatsappSent flags that the ticket went out over WhatsApp.
	MarkWhatsappSent(ctx context.Context, id int64) error

	// MarkEmailSent flags that the ticket went out by email.
	MarkEmailSent(ctx context.Context, id int64) error
}

// UserRepository reads customer contacts.
type UserRepository interface {
	// GetByID retrieves a user, or nil, nil.
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// CouponRepository reads coupons.
type CouponRepository interface {
	// GetByCode retrieves a coupon by its normalized code, or nil, nil.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
}
