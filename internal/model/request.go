package model

import (
	"errors"
	"strings"
	"time"

	"attraction-booking/internal/slot"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// CartItem is the canonical input schema for one cart line.
//
// SlotID and ComboSlotID accept a stored slot id (number) or a virtual slot
// id string "{target_id}-{YYYYMMDD}-{hour}". Client supplied slot times and
// labels are only used as a pricing hint for lines without a slot.
type CartItem struct {
	ItemType      ItemType      `json:"item_type"`
	AttractionID  *int64        `json:"attraction_id,omitempty"`
	ComboID       *int64        `json:"combo_id,omitempty"`
	SlotID        slot.Ref      `json:"slot_id"`
	ComboSlotID   slot.Ref      `json:"combo_slot_id"`
	Quantity      int           `json:"quantity"`
	BookingDate   string        `json:"booking_date"`
	SlotStartTime *string       `json:"slot_start_time,omitempty"`
	SlotEndTime   *string       `json:"slot_end_time,omitempty"`
	SlotLabel     *string       `json:"slot_label,omitempty"`
	OfferID       *int64        `json:"offer_id,omitempty"`
	CouponCode    *string       `json:"coupon_code,omitempty"`
	Addons        []AddonSelect `json:"addons,omitempty"`
}

// AddonSelect requests an add-on for a cart line.
type AddonSelect struct {
	AddonID  int64 `json:"addon_id"`
	Quantity int   `json:"quantity"`
}

// Validate validates AddonSelect
func (a AddonSelect) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.AddonID, validation.Required, validation.Min(int64(1))),
		validation.Field(&a.Quantity, validation.Required, validation.Min(1)),
	)
}

// Validate validates CartItem
func (it CartItem) Validate() error {
	err := validation.ValidateStruct(&it,
		validation.Field(&it.ItemType, validation.In(ItemAttraction, ItemCombo)),
		validation.Field(&it.AttractionID, validation.NilOrNotEmpty, validation.Min(int64(1))),
		validation.Field(&it.ComboID, validation.NilOrNotEmpty, validation.Min(int64(1))),
		validation.Field(&it.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&it.BookingDate, validation.Date(slot.DateLayout)),
		validation.Field(&it.SlotStartTime, validation.NilOrNotEmpty, validation.By(timeOfDay)),
		validation.Field(&it.SlotEndTime, validation.NilOrNotEmpty, validation.By(timeOfDay)),
		validation.Field(&it.Addons),
	)
	if err != nil {
		return err
	}

	if _, err := it.ResolvedType(); err != nil {
		return err
	}
	if it.BookingDate == "" && !it.SlotRef().IsVirtual() {
		return validation.Errors{"booking_date": errors.New("cannot be blank")}
	}
	return nil
}

// ResolvedType derives the item type from which product id is present. A
// declared item_type must agree with the ids.
func (it CartItem) ResolvedType() (ItemType, error) {
	var derived ItemType
	switch {
	case it.ComboID != nil && it.AttractionID == nil:
		derived = ItemCombo
	case it.AttractionID != nil && it.ComboID == nil:
		derived = ItemAttraction
	case it.AttractionID != nil && it.ComboID != nil:
		if it.ItemType == "" {
			return "", errors.New("item_type is required when both attraction_id and combo_id are set")
		}
		derived = it.ItemType
	default:
		return "", errors.New("attraction_id or combo_id is required")
	}

	if it.ItemType != "" && it.ItemType != derived {
		return "", errors.New("item_type does not match the product id provided")
	}
	return derived, nil
}

// TargetID returns the product id for the resolved type.
func (it CartItem) TargetID() int64 {
	t, _ := it.ResolvedType()
	if t == ItemCombo && it.ComboID != nil {
		return *it.ComboID
	}
	if it.AttractionID != nil {
		return *it.AttractionID
	}
	return 0
}

// SlotRef returns the slot the line is booked against for its type.
func (it CartItem) SlotRef() slot.Ref {
	t, _ := it.ResolvedType()
	if t == ItemCombo {
		if !it.ComboSlotID.IsZero() {
			return it.ComboSlotID
		}
	}
	return it.SlotID
}

// Date returns the booking date, taken from a virtual slot when the field
// is empty.
func (it CartItem) Date() (time.Time, error) {
	if it.BookingDate == "" {
		if ref := it.SlotRef(); ref.IsVirtual() {
			return ref.Date(), nil
		}
		return time.Time{}, errors.New("booking_date is required")
	}
	return slot.ParseDate(it.BookingDate)
}

// CreateOrderRequest represents the request payload for creating an order.
type CreateOrderRequest struct {
	UserID      *int64     `json:"user_id,omitempty"`
	CouponCode  *string    `json:"coupon_code,omitempty"`
	PaymentMode *string    `json:"payment_mode,omitempty"`
	Items       []CartItem `json:"items"`
}

// Validate validates CreateOrderRequest
func (req CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Items, validation.Required, validation.Length(1, 50)),
		validation.Field(&req.CouponCode, validation.NilOrNotEmpty, validation.Length(1, 64)),
	)
}

// Coupon returns the single cart coupon, taken from the request or from any
// line. Codes are compared case-insensitively; two different codes in one
// cart are rejected.
func (req CreateOrderRequest) Coupon() (string, error) {
	var code string
	pick := func(c *string) error {
		if c == nil || strings.TrimSpace(*c) == "" {
			return nil
		}
		if code == "" {
			code = strings.TrimSpace(*c)
			return nil
		}
		if !strings.EqualFold(code, strings.TrimSpace(*c)) {
			return Validation(ErrCodeInvalidCoupon, "only one coupon per cart, got %q and %q", code, strings.TrimSpace(*c))
		}
		return nil
	}

	if err := pick(req.CouponCode); err != nil {
		return "", err
	}
	for _, it := range req.Items {
		if err := pick(it.CouponCode); err != nil {
			return "", err
		}
	}
	return code, nil
}

// PaymentResult is what the core needs from a payment gateway callback.
// GatewayError is set when the gateway could not give a verdict; the order
// then stays Pending.
type PaymentResult struct {
	Reference    string          `json:"reference"`
	Amount       decimal.Decimal `json:"amount"`
	Success      bool            `json:"success"`
	Mode         string          `json:"mode"`
	GatewayError string          `json:"gateway_error,omitempty"`
}

// Validate validates PaymentResult
func (p PaymentResult) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Reference, validation.Required, validation.Length(1, 128)),
		validation.Field(&p.Amount, validation.By(func(value interface{}) error {
			d, _ := value.(decimal.Decimal)
			if d.IsNegative() {
				return errors.New("must not be negative")
			}
			return nil
		})),
	)
}

func timeOfDay(value interface{}) error {
	s, _ := value.(*string)
	if s == nil {
		return nil
	}
	_, err := slot.ParseTimeOfDay(*s)
	return err
}
