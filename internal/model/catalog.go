package model

import (
	"time"

	"attraction-booking/internal/slot"

	"github.com/shopspring/decimal"
)

// TargetType is the kind of sellable product a rule or slot applies to.
type TargetType string

const (
	TargetAttraction TargetType = "attraction"
	TargetCombo      TargetType = "combo"
)

// Attraction is a single sellable experience.
type Attraction struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	BasePrice decimal.Decimal `json:"base_price" db:"base_price"`
	Active    bool            `json:"active" db:"active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Combo bundles several attractions behind one slot.
type Combo struct {
	ID               int64                     `json:"id" db:"id"`
	Name             string                    `json:"name" db:"name"`
	AttractionIDs    []int64                   `json:"attraction_ids" db:"attraction_ids"`
	AttractionPrices map[int64]decimal.Decimal `json:"attraction_prices" db:"attraction_prices"`
	TotalPrice       decimal.Decimal           `json:"total_price" db:"total_price"`
	Active           bool                      `json:"active" db:"active"`
	CreatedAt        time.Time                 `json:"created_at" db:"created_at"`
}

// DurationHours is one hour per included attraction, at least one.
func (c *Combo) DurationHours() int {
	return max(len(c.AttractionIDs), 1)
}

// Addon is an optional extra sold alongside a ticket.
type Addon struct {
	ID              int64           `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Price           decimal.Decimal `json:"price" db:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent" db:"discount_percent"`
	Active          bool            `json:"active" db:"active"`
}

// UnitPrice is the add-on price after its own discount.
func (a *Addon) UnitPrice() decimal.Decimal {
	if !a.DiscountPercent.IsPositive() {
		return a.Price
	}
	off := a.Price.Mul(a.DiscountPercent).Div(decimal.NewFromInt(100))
	return decimal.Max(a.Price.Sub(off), decimal.Zero)
}

// Slot is a stored slot row for an attraction or a combo. Capacity is
// enforced against the live sum of non-cancelled bookings.
type Slot struct {
	ID         int64            `json:"id" db:"id"`
	TargetType TargetType       `json:"target_type"`
	TargetID   int64            `json:"target_id"`
	Date       time.Time        `json:"date" db:"slot_date"`
	Window     slot.Window      `json:"-"`
	Capacity   int              `json:"capacity" db:"capacity"`
	Price      *decimal.Decimal `json:"price,omitempty" db:"price"`
	Available  bool             `json:"available" db:"available"`
}

// SlotAvailability is a listing entry for one slot (stored or virtual).
type SlotAvailability struct {
	SlotID    slot.Ref `json:"slot_id"`
	Virtual   bool     `json:"virtual"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Label     string   `json:"label"`
	Capacity  int      `json:"capacity"`
	Booked    int      `json:"booked"`
	Available int      `json:"available"`
}

// User is the customer an order is booked for. Email and Phone are the
// ticket delivery contacts.
type User struct {
	ID    int64   `json:"id" db:"id"`
	Name  string  `json:"name" db:"name"`
	Email *string `json:"email,omitempty" db:"email"`
	Phone *string `json:"phone,omitempty" db:"phone"`
}
