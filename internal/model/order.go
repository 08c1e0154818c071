package model

import (
	"time"

	"attraction-booking/internal/slot"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the order payment state machine.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentCancelled PaymentStatus = "Cancelled"
	PaymentFailed    PaymentStatus = "Failed"
)

// CanTransition reports whether the order may move from s to next.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentCompleted || next == PaymentCancelled || next == PaymentFailed
	case PaymentFailed:
		return next == PaymentCompleted || next == PaymentCancelled
	default:
		return false
	}
}

// BookingStatus is the fulfilment state of one booking line.
type BookingStatus string

const (
	BookingBooked    BookingStatus = "Booked"
	BookingCancelled BookingStatus = "Cancelled"
)

// ItemType is the kind of product a booking line sells.
type ItemType string

const (
	ItemAttraction ItemType = "Attraction"
	ItemCombo      ItemType = "Combo"
)

// Target maps an item type to the target type used by offer rules and slots.
func (t ItemType) Target() TargetType {
	if t == ItemCombo {
		return TargetCombo
	}
	return TargetAttraction
}

// Order is the unit of payment. FinalAmount is TotalAmount minus
// DiscountAmount, never below zero.
type Order struct {
	ID             int64           `json:"id" db:"order_id"`
	Ref            string          `json:"ref" db:"order_ref"`
	UserID         *int64          `json:"user_id,omitempty" db:"user_id"`
	TotalAmount    decimal.Decimal `json:"total_amount" db:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	CouponDiscount decimal.Decimal `json:"coupon_discount" db:"coupon_discount"`
	FinalAmount    decimal.Decimal `json:"final_amount" db:"final_amount"`
	PaymentStatus  PaymentStatus   `json:"payment_status" db:"payment_status"`
	PaymentMode    *string         `json:"payment_mode,omitempty" db:"payment_mode"`
	PaymentRef     *string         `json:"payment_ref,omitempty" db:"payment_ref"`
	CouponCode     *string         `json:"coupon_code,omitempty" db:"coupon_code"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// Booking is one cart line owned by an order. Exactly one of AttractionID
// and ComboID is set, matching ItemType.
type Booking struct {
	ID              int64           `json:"booking_id" db:"booking_id"`
	OrderID         int64           `json:"order_id" db:"order_id"`
	UserID          *int64          `json:"user_id,omitempty" db:"user_id"`
	ItemType        ItemType        `json:"item_type" db:"item_type"`
	AttractionID    *int64          `json:"attraction_id,omitempty" db:"attraction_id"`
	ComboID         *int64          `json:"combo_id,omitempty" db:"combo_id"`
	SlotID          *int64          `json:"slot_id,omitempty" db:"slot_id"`
	ComboSlotID     *int64          `json:"combo_slot_id,omitempty" db:"combo_slot_id"`
	OfferID         *int64          `json:"offer_id,omitempty" db:"offer_id"`
	Quantity        int             `json:"quantity" db:"quantity"`
	BookingDate     time.Time       `json:"booking_date" db:"booking_date"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount" db:"final_amount"`
	PaymentStatus   PaymentStatus   `json:"payment_status" db:"payment_status"`
	BookingStatus   BookingStatus   `json:"booking_status" db:"booking_status"`
	SlotStartTime   *string         `json:"slot_start_time,omitempty" db:"slot_start_time"`
	SlotEndTime     *string         `json:"slot_end_time,omitempty" db:"slot_end_time"`
	SlotLabel       string          `json:"slot_label" db:"slot_label"`
	ParentBookingID *int64          `json:"parent_booking_id,omitempty" db:"parent_booking_id"`
	TicketPDF       *string         `json:"ticket_pdf,omitempty" db:"ticket_pdf"`
	WhatsappSent    bool            `json:"whatsapp_sent" db:"whatsapp_sent"`
	EmailSent       bool            `json:"email_sent" db:"email_sent"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	Addons          []BookingAddon  `json:"addons,omitempty"`
}

// SetDisplay copies a resolved display slot onto the denormalized fields.
func (b *Booking) SetDisplay(d slot.Display) {
	b.SlotStartTime, b.SlotEndTime = nil, nil
	if d.Start != nil {
		s := d.Start.String()
		b.SlotStartTime = &s
	}
	if d.End != nil {
		e := d.End.String()
		b.SlotEndTime = &e
	}
	b.SlotLabel = d.Label
}

// StoredWindow returns the denormalized window, or nil when incomplete.
func (b *Booking) StoredWindow() *slot.Window {
	if b.SlotStartTime == nil || b.SlotEndTime == nil {
		return nil
	}
	start, err := slot.ParseTimeOfDay(*b.SlotStartTime)
	if err != nil {
		return nil
	}
	end, err := slot.ParseTimeOfDay(*b.SlotEndTime)
	if err != nil {
		return nil
	}
	return &slot.Window{Start: start, End: end}
}

// BookingAddon snapshots an add-on's quantity and unit price at booking time.
type BookingAddon struct {
	ID        int64           `json:"id" db:"id"`
	BookingID int64           `json:"booking_id" db:"booking_id"`
	AddonID   int64           `json:"addon_id" db:"addon_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
}

// OrderResponse is the result of order creation and order reads.
type OrderResponse struct {
	OrderID  int64     `json:"order_id"`
	Order    Order     `json:"order"`
	Bookings []Booking `json:"bookings"`
}

// PaymentUpdate is a payment state change applied to an order and mirrored
// onto its bookings.
type PaymentUpdate struct {
	Status        PaymentStatus
	Mode          *string
	Reference     *string
	BookingStatus *BookingStatus
}
