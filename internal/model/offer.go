package model

import (
	"errors"
	"strconv"
	"time"

	"attraction-booking/internal/slot"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// RuleType selects how an offer's discount is applied.
type RuleType string

const (
	RulePlain    RuleType = "plain"
	RuleBuyXGetY RuleType = "buy_x_get_y"
)

// DiscountType is percent off or a fixed amount off.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountAmount  DiscountType = "amount"
)

// DayType restricts a rule to a class of days.
type DayType string

const (
	DayWeekday DayType = "weekday"
	DayWeekend DayType = "weekend"
	DayHoliday DayType = "holiday"
	DayCustom  DayType = "custom"
)

// AdjustmentType is the shape of a dynamic pricing adjustment.
type AdjustmentType string

const (
	AdjustFixed      AdjustmentType = "fixed"
	AdjustPercentage AdjustmentType = "percentage"
)

// Offer is a discount campaign owning one or more rules.
type Offer struct {
	ID            int64            `json:"id" db:"id"`
	Title         string           `json:"title" db:"title"`
	RuleType      RuleType         `json:"rule_type" db:"rule_type"`
	DiscountType  *DiscountType    `json:"discount_type,omitempty" db:"discount_type"`
	DiscountValue *decimal.Decimal `json:"discount_value,omitempty" db:"discount_value"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty" db:"max_discount"`
	ValidFrom     *time.Time       `json:"valid_from,omitempty" db:"valid_from"`
	ValidTo       *time.Time       `json:"valid_to,omitempty" db:"valid_to"`
	Active        bool             `json:"active" db:"active"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
	Rules         []OfferRule      `json:"rules,omitempty"`
}

// OfferRule scopes when and where an offer applies. Either AppliesToAll is
// set or TargetID names a single product; a rule with neither matches nothing.
type OfferRule struct {
	ID                int64            `json:"id" db:"rule_id"`
	OfferID           int64            `json:"offer_id" db:"offer_id"`
	TargetType        TargetType       `json:"target_type" db:"target_type"`
	TargetID          *int64           `json:"target_id,omitempty" db:"target_id"`
	AppliesToAll      bool             `json:"applies_to_all" db:"applies_to_all"`
	DateFrom          *time.Time       `json:"date_from,omitempty" db:"date_from"`
	DateTo            *time.Time       `json:"date_to,omitempty" db:"date_to"`
	TimeFrom          *slot.TimeOfDay  `json:"time_from,omitempty" db:"time_from"`
	TimeTo            *slot.TimeOfDay  `json:"time_to,omitempty" db:"time_to"`
	SlotType          *TargetType      `json:"slot_type,omitempty" db:"slot_type"`
	SlotID            *string          `json:"slot_id,omitempty" db:"slot_id"`
	DayType           *DayType         `json:"day_type,omitempty" db:"day_type"`
	SpecificDays      []int            `json:"specific_days,omitempty" db:"specific_days"`
	SpecificDate      *time.Time       `json:"specific_date,omitempty" db:"specific_date"`
	SpecificTime      *slot.TimeOfDay  `json:"specific_time,omitempty" db:"specific_time"`
	RuleDiscountType  *DiscountType    `json:"rule_discount_type,omitempty" db:"rule_discount_type"`
	RuleDiscountValue *decimal.Decimal `json:"rule_discount_value,omitempty" db:"rule_discount_value"`
	Priority          int              `json:"priority" db:"priority"`
	BuyQty            *int             `json:"buy_qty,omitempty" db:"buy_qty"`
	GetQty            *int             `json:"get_qty,omitempty" db:"get_qty"`
	GetTargetType     *TargetType      `json:"get_target_type,omitempty" db:"get_target_type"`
	GetTargetID       *int64           `json:"get_target_id,omitempty" db:"get_target_id"`
	GetDiscountType   *DiscountType    `json:"get_discount_type,omitempty" db:"get_discount_type"`
	GetDiscountValue  *decimal.Decimal `json:"get_discount_value,omitempty" db:"get_discount_value"`
}

// ApplicableRule is a rule together with the offer it belongs to, the unit
// the Rule Matcher selects.
type ApplicableRule struct {
	Offer Offer     `json:"offer"`
	Rule  OfferRule `json:"rule"`
}

// OfferSummary is the offer metadata attached to a priced line.
type OfferSummary struct {
	OfferID  int64    `json:"offer_id"`
	RuleID   int64    `json:"rule_id"`
	Title    string   `json:"title"`
	RuleType RuleType `json:"rule_type"`
	Source   string   `json:"source"`
}

// DynamicPricingRule adjusts a base price up or down. It is consulted only
// when no offer rule matches.
type DynamicPricingRule struct {
	ID              int64           `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	TargetType      TargetType      `json:"target_type" db:"target_type"`
	TargetID        *int64          `json:"target_id,omitempty" db:"target_id"`
	DateFrom        *time.Time      `json:"date_from,omitempty" db:"date_from"`
	DateTo          *time.Time      `json:"date_to,omitempty" db:"date_to"`
	TimeFrom        *slot.TimeOfDay `json:"time_from,omitempty" db:"time_from"`
	TimeTo          *slot.TimeOfDay `json:"time_to,omitempty" db:"time_to"`
	DayType         *DayType        `json:"day_type,omitempty" db:"day_type"`
	SpecificDays    []int           `json:"specific_days,omitempty" db:"specific_days"`
	AdjustmentType  AdjustmentType  `json:"adjustment_type" db:"price_adjustment_type"`
	AdjustmentValue decimal.Decimal `json:"adjustment_value" db:"price_adjustment_value"`
	Priority        int             `json:"priority" db:"priority"`
	Active          bool            `json:"active" db:"active"`
}

// CreateOfferRequest is the admin payload for a new offer.
type CreateOfferRequest struct {
	Title         string           `json:"title"`
	RuleType      RuleType         `json:"rule_type"`
	DiscountType  *DiscountType    `json:"discount_type,omitempty"`
	DiscountValue *decimal.Decimal `json:"discount_value,omitempty"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	ValidFrom     *time.Time       `json:"valid_from,omitempty"`
	ValidTo       *time.Time       `json:"valid_to,omitempty"`
	Active        bool             `json:"active"`
	Rules         []OfferRule      `json:"rules"`
}

// Validate validates CreateOfferRequest
func (req CreateOfferRequest) Validate() error {
	err := validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.RuleType, validation.Required, validation.In(RulePlain, RuleBuyXGetY)),
		validation.Field(&req.DiscountType, validation.NilOrNotEmpty, validation.In(DiscountPercent, DiscountAmount)),
		validation.Field(&req.DiscountValue, validation.By(nonNegativeDecimal)),
		validation.Field(&req.MaxDiscount, validation.By(nonNegativeDecimal)),
		validation.Field(&req.Rules, validation.Required),
	)
	if err != nil {
		return err
	}

	if req.ValidFrom != nil && req.ValidTo != nil && req.ValidTo.Before(*req.ValidFrom) {
		return errors.New("valid_to must not be before valid_from")
	}

	for i := range req.Rules {
		if err := req.Rules[i].validate(req.RuleType); err != nil {
			return validation.Errors{"rules": validation.Errors{strconv.Itoa(i): err}}
		}
	}
	return nil
}

func (r OfferRule) validate(ruleType RuleType) error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.TargetType, validation.Required, validation.In(TargetAttraction, TargetCombo)),
		validation.Field(&r.DayType, validation.NilOrNotEmpty, validation.In(DayWeekday, DayWeekend, DayHoliday, DayCustom)),
		validation.Field(&r.RuleDiscountType, validation.NilOrNotEmpty, validation.In(DiscountPercent, DiscountAmount)),
		validation.Field(&r.RuleDiscountValue, validation.By(nonNegativeDecimal)),
		validation.Field(&r.SpecificDays, validation.Each(validation.Min(0), validation.Max(6))),
	)
	if err != nil {
		return err
	}

	if r.AppliesToAll == (r.TargetID != nil) {
		return errors.New("exactly one of applies_to_all or target_id must be set")
	}
	if r.DayType != nil && *r.DayType == DayCustom && len(r.SpecificDays) == 0 {
		return errors.New("specific_days is required when day_type is custom")
	}
	if ruleType == RuleBuyXGetY {
		if r.BuyQty == nil || *r.BuyQty < 1 || r.GetQty == nil || *r.GetQty < 1 {
			return errors.New("buy_qty and get_qty must be positive for buy_x_get_y offers")
		}
	}
	return nil
}

func nonNegativeDecimal(value interface{}) error {
	d, _ := value.(*decimal.Decimal)
	if d != nil && d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}
