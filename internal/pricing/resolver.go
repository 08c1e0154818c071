package pricing

import (
	"context"

	"attraction-booking/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	SourceOffer   = "offer"
	SourceDynamic = "dynamic_pricing"
)

var hundred = decimal.NewFromInt(100)

// Price is the resolved price of one unit.
//
// Base is the effective undiscounted unit price: the catalog price, raised or
// lowered by a dynamic pricing adjustment when one applied. Unit is Base minus
// Discount and never negative.
type Price struct {
	Base     decimal.Decimal
	Unit     decimal.Decimal
	Discount decimal.Decimal
	Offer    *model.OfferSummary
	Rule     *model.ApplicableRule
}

// Resolver turns a base amount and a query into a unit price.
type Resolver struct {
	matcher *Matcher
	logger  zerolog.Logger
}

// NewResolver creates a pricing resolver.
func NewResolver(matcher *Matcher, logger zerolog.Logger) *Resolver {
	return &Resolver{
		matcher: matcher,
		logger:  logger.With().Str("component", "pricing-resolver").Logger(),
	}
}

// ComputeUnitPrice prices one unit of q's target. Offer rules take precedence;
// dynamic pricing rules are consulted only when no offer rule matches.
func (r *Resolver) ComputeUnitPrice(ctx context.Context, q Query, baseAmount decimal.Decimal) (Price, error) {
	baseAmount = decimal.Max(baseAmount, decimal.Zero)

	ar, err := r.matcher.FindApplicableRule(ctx, q)
	if err != nil {
		return Price{}, err
	}
	if ar != nil {
		return ApplyRule(*ar, baseAmount), nil
	}

	dyn, err := r.matcher.FindDynamicRule(ctx, q)
	if err != nil {
		return Price{}, err
	}
	if dyn != nil {
		adjusted := ApplyAdjustment(*dyn, baseAmount)
		r.logger.Debug().
			Int64("dynamic_rule_id", dyn.ID).
			Str("base", baseAmount.String()).
			Str("adjusted", adjusted.String()).
			Msg("dynamic pricing applied")
		return Price{
			Base:     adjusted,
			Unit:     adjusted,
			Discount: decimal.Zero,
			Offer: &model.OfferSummary{
				RuleID: dyn.ID,
				Title:  dyn.Name,
				Source: SourceDynamic,
			},
		}, nil
	}

	return Price{Base: baseAmount, Unit: baseAmount, Discount: decimal.Zero}, nil
}

// ApplyRule computes the per-unit discount of a matched rule. Buy-X-get-Y
// rules carry no per-unit discount; their discount depends on the line
// quantity and is computed by LineDiscount.
func ApplyRule(ar model.ApplicableRule, baseAmount decimal.Decimal) Price {
	p := Price{
		Base:     baseAmount,
		Unit:     baseAmount,
		Discount: decimal.Zero,
		Offer: &model.OfferSummary{
			OfferID:  ar.Offer.ID,
			RuleID:   ar.Rule.ID,
			Title:    ar.Offer.Title,
			RuleType: ar.Offer.RuleType,
			Source:   SourceOffer,
		},
		Rule: &ar,
	}
	if ar.Offer.RuleType == model.RuleBuyXGetY {
		return p
	}

	dtype, value := ar.Offer.DiscountType, ar.Offer.DiscountValue
	if ar.Rule.RuleDiscountType != nil && ar.Rule.RuleDiscountValue != nil {
		dtype, value = ar.Rule.RuleDiscountType, ar.Rule.RuleDiscountValue
	}
	if dtype == nil || value == nil {
		return p
	}

	discount := rawDiscount(*dtype, *value, baseAmount)
	discount = clamp(discount, ar.Offer.MaxDiscount, baseAmount)

	p.Discount = discount
	p.Unit = baseAmount.Sub(discount)
	return p
}

// LineDiscount returns the discount for qty units at unit price p. For plain
// offers this is the unit discount times qty. For buy-X-get-Y offers every
// complete group of buy+get units grants get units at the get discount (100%
// off by default), capped by the offer's max_discount.
func LineDiscount(p Price, targetType model.TargetType, targetID int64, qty int) decimal.Decimal {
	if p.Rule == nil || p.Rule.Offer.RuleType != model.RuleBuyXGetY {
		return p.Discount.Mul(decimal.NewFromInt(int64(qty)))
	}

	rule := p.Rule.Rule
	if rule.BuyQty == nil || rule.GetQty == nil || *rule.BuyQty < 1 || *rule.GetQty < 1 {
		return decimal.Zero
	}
	if rule.GetTargetType != nil && *rule.GetTargetType != targetType {
		return decimal.Zero
	}
	if rule.GetTargetID != nil && *rule.GetTargetID != targetID {
		return decimal.Zero
	}

	group := *rule.BuyQty + *rule.GetQty
	free := (qty / group) * *rule.GetQty
	if free == 0 {
		return decimal.Zero
	}

	perUnit := p.Base
	if rule.GetDiscountType != nil && rule.GetDiscountValue != nil {
		perUnit = rawDiscount(*rule.GetDiscountType, *rule.GetDiscountValue, p.Base)
		perUnit = decimal.Min(perUnit, p.Base)
	}

	lineBase := p.Base.Mul(decimal.NewFromInt(int64(qty)))
	discount := perUnit.Mul(decimal.NewFromInt(int64(free)))
	return clamp(discount, p.Rule.Offer.MaxDiscount, lineBase)
}

// ApplyAdjustment applies a dynamic pricing rule. Positive values raise the
// price, negative values lower it; the result is floored at zero.
func ApplyAdjustment(rule model.DynamicPricingRule, baseAmount decimal.Decimal) decimal.Decimal {
	var adjusted decimal.Decimal
	switch rule.AdjustmentType {
	case model.AdjustPercentage:
		adjusted = baseAmount.Add(baseAmount.Mul(rule.AdjustmentValue).Div(hundred))
	default:
		adjusted = baseAmount.Add(rule.AdjustmentValue)
	}
	return decimal.Max(adjusted, decimal.Zero)
}

func rawDiscount(dtype model.DiscountType, value, base decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	if dtype == model.DiscountAmount {
		return value
	}
	return base.Mul(value).Div(hundred)
}

func clamp(discount decimal.Decimal, maxDiscount *decimal.Decimal, ceiling decimal.Decimal) decimal.Decimal {
	if maxDiscount != nil && discount.GreaterThan(*maxDiscount) {
		discount = *maxDiscount
	}
	if discount.GreaterThan(ceiling) {
		discount = ceiling
	}
	return decimal.Max(discount, decimal.Zero)
}
