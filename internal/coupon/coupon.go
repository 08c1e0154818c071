package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"attraction-booking/internal/model"
	"attraction-booking/internal/slot"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repository defines the coupon lookup the service needs.
type Repository interface {
	// GetByCode returns the coupon with the given code, or nil when none exists.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
}

// Service resolves cart coupons and computes their discount.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a coupon service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("service", "coupon").Logger(),
	}
}

// GetCouponByCode returns the coupon for code. With activeOnly set, inactive
// coupons and coupons outside their validity window on onDate are treated as
// absent. Codes are matched case-insensitively.
func (s *Service) GetCouponByCode(ctx context.Context, code string, activeOnly bool, onDate time.Time) (*model.Coupon, error) {
	code = Normalize(code)
	if code == "" {
		return nil, nil
	}

	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Str("coupon_code", code).Msg("failed to look up coupon")
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}
	if c == nil {
		s.logger.Debug().Str("coupon_code", code).Msg("coupon not found")
		return nil, nil
	}

	if activeOnly && !Usable(c, onDate) {
		s.logger.Debug().
			Str("coupon_code", code).
			Bool("active", c.Active).
			Time("on_date", onDate).
			Msg("coupon not usable")
		return nil, nil
	}
	return c, nil
}

// ComputeDiscount returns the discount c grants on amount. Carts below the
// coupon's minimum get nothing; the result never exceeds amount.
func (s *Service) ComputeDiscount(c *model.Coupon, amount decimal.Decimal) decimal.Decimal {
	return ComputeDiscount(c, amount)
}

// ComputeDiscount is the pure discount calculation behind Service.ComputeDiscount.
func ComputeDiscount(c *model.Coupon, amount decimal.Decimal) decimal.Decimal {
	if c == nil || !amount.IsPositive() || c.DiscountValue.IsNegative() {
		return decimal.Zero
	}
	if c.MinAmount != nil && amount.LessThan(*c.MinAmount) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.DiscountType {
	case model.DiscountPercent:
		discount = amount.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
	case model.DiscountAmount:
		discount = c.DiscountValue
	default:
		return decimal.Zero
	}

	if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
		discount = *c.MaxDiscount
	}
	if discount.GreaterThan(amount) {
		discount = amount
	}
	return discount.Round(2)
}

// Usable reports whether c is active and valid on onDate. Bounds are
// inclusive whole days.
func Usable(c *model.Coupon, onDate time.Time) bool {
	if !c.Active {
		return false
	}
	day := slot.DateOnly(onDate)
	if c.ValidFrom != nil && day.Before(slot.DateOnly(*c.ValidFrom)) {
		return false
	}
	if c.ValidTo != nil && day.After(slot.DateOnly(*c.ValidTo)) {
		return false
	}
	return true
}

// Normalize canonicalises a coupon code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
