package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coupon is a cart-level discount code.
type Coupon struct {
	ID            int64            `json:"id" db:"id"`
	Code          string           `json:"code" db:"code"`
	DiscountType  DiscountType     `json:"discount_type" db:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value" db:"discount_value"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty" db:"max_discount"`
	MinAmount     *decimal.Decimal `json:"min_amount,omitempty" db:"min_amount"`
	ValidFrom     *time.Time       `json:"valid_from,omitempty" db:"valid_from"`
	ValidTo       *time.Time       `json:"valid_to,omitempty" db:"valid_to"`
	Active        bool             `json:"active" db:"active"`
}
