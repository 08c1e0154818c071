package pricing

import (
	"context"
	"fmt"
	"time"

	"attraction-booking/internal/model"
	"attraction-booking/internal/slot"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Catalog looks up the products a cart references. Getters return nil, nil
// when the row does not exist.
type Catalog interface {
	GetAttraction(ctx context.Context, id int64) (*model.Attraction, error)
	GetCombo(ctx context.Context, id int64) (*model.Combo, error)
	GetAddon(ctx context.Context, id int64) (*model.Addon, error)
	GetSlot(ctx context.Context, targetType model.TargetType, id int64) (*model.Slot, error)
}

// CouponService resolves and evaluates cart coupons.
type CouponService interface {
	GetCouponByCode(ctx context.Context, code string, activeOnly bool, onDate time.Time) (*model.Coupon, error)
	ComputeDiscount(c *model.Coupon, amount decimal.Decimal) decimal.Decimal
}

// Line is one priced cart line.
type Line struct {
	Item         model.CartItem    `json:"-"`
	Type         model.ItemType    `json:"item_type"`
	TargetID     int64             `json:"target_id"`
	Quantity     int               `json:"quantity"`
	BookingDate  time.Time         `json:"booking_date"`
	Slot         slot.Ref          `json:"slot_id"`
	PhysicalSlot *model.Slot       `json:"-"`
	Window       *slot.Window      `json:"-"`
	Capacity     int               `json:"-"`
	Attraction   *model.Attraction `json:"-"`
	Combo        *model.Combo      `json:"combo_details,omitempty"`

	BaseUnit       decimal.Decimal      `json:"base_unit_price"`
	UnitPrice      decimal.Decimal      `json:"unit_price"`
	UnitDiscount   decimal.Decimal      `json:"unit_discount"`
	TicketsTotal   decimal.Decimal      `json:"tickets_total"`
	AddonsTotal    decimal.Decimal      `json:"addons_total"`
	TotalAmount    decimal.Decimal      `json:"total_amount"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	FinalAmount    decimal.Decimal      `json:"final_amount"`
	Addons         []model.BookingAddon `json:"addons"`
	Offer          *model.OfferSummary  `json:"offer,omitempty"`
}

// Display resolves the slot shown for the line: the stored slot row first,
// then the computed virtual window.
func (l *Line) Display() slot.Display {
	var physical *slot.Window
	if l.PhysicalSlot != nil {
		w := l.PhysicalSlot.Window
		physical = &w
	}
	var virtual *slot.Window
	if l.Slot.IsVirtual() {
		virtual = l.Window
	}
	return slot.ResolveDisplay(physical, virtual)
}

// Cart is the priced cart with one coupon applied on top of the lines.
type Cart struct {
	Lines          []Line          `json:"lines"`
	Gross          decimal.Decimal `json:"total_amount"`
	OfferDiscount  decimal.Decimal `json:"offer_discount"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	Discount       decimal.Decimal `json:"discount_amount"`
	Final          decimal.Decimal `json:"final_amount"`
	Coupon         *model.Coupon   `json:"coupon,omitempty"`
}

// Totalizer prices carts. It performs no writes.
type Totalizer struct {
	catalog  Catalog
	resolver *Resolver
	coupons  CouponService
	schedule slot.Schedule
	logger   zerolog.Logger
}

// NewTotalizer creates a cart totalizer.
func NewTotalizer(catalog Catalog, resolver *Resolver, coupons CouponService, schedule slot.Schedule, logger zerolog.Logger) *Totalizer {
	return &Totalizer{
		catalog:  catalog,
		resolver: resolver,
		coupons:  coupons,
		schedule: schedule,
		logger:   logger.With().Str("component", "cart-totalizer").Logger(),
	}
}

// ComputeTotalsMulti prices every line and applies couponCode once against
// gross minus offer discounts. Any line failure aborts the whole cart.
func (t *Totalizer) ComputeTotalsMulti(ctx context.Context, items []model.CartItem, couponCode string, onDate time.Time) (*Cart, error) {
	cart := &Cart{
		Lines:          make([]Line, 0, len(items)),
		Gross:          decimal.Zero,
		OfferDiscount:  decimal.Zero,
		CouponDiscount: decimal.Zero,
	}

	for i, item := range items {
		line, err := t.ComputeTotals(ctx, item)
		if err != nil {
			t.logger.Warn().Err(err).Int("item_index", i).Msg("cart line rejected")
			return nil, err
		}
		cart.Lines = append(cart.Lines, *line)
		cart.Gross = cart.Gross.Add(line.TotalAmount)
		cart.OfferDiscount = cart.OfferDiscount.Add(line.DiscountAmount)
	}

	if couponCode != "" {
		c, err := t.coupons.GetCouponByCode(ctx, couponCode, true, onDate)
		if err != nil {
			return nil, fmt.Errorf("failed to look up coupon: %w", err)
		}
		if c == nil {
			return nil, model.Validation(model.ErrCodeInvalidCoupon, "coupon %q is not valid", couponCode)
		}
		net := decimal.Max(cart.Gross.Sub(cart.OfferDiscount), decimal.Zero)
		cart.Coupon = c
		cart.CouponDiscount = decimal.Min(t.coupons.ComputeDiscount(c, net), net).Round(2)
	}

	cart.Discount = cart.OfferDiscount.Add(cart.CouponDiscount)
	cart.Final = decimal.Max(cart.Gross.Sub(cart.Discount), decimal.Zero)

	t.logger.Debug().
		Int("lines", len(cart.Lines)).
		Str("gross", cart.Gross.String()).
		Str("discount", cart.Discount.String()).
		Str("final", cart.Final.String()).
		Msg("cart priced")

	return cart, nil
}

// ComputeTotals prices one cart line.
func (t *Totalizer) ComputeTotals(ctx context.Context, item model.CartItem) (*Line, error) {
	if err := item.Validate(); err != nil {
		return nil, model.Validation(model.ErrCodeInvalidCartItem, "invalid cart item: %v", err)
	}

	itemType, _ := item.ResolvedType()
	date, err := item.Date()
	if err != nil {
		return nil, model.Validation(model.ErrCodeInvalidCartItem, "invalid booking_date: %v", err)
	}

	line := &Line{
		Item:        item,
		Type:        itemType,
		TargetID:    item.TargetID(),
		Quantity:    item.Quantity,
		BookingDate: date,
		Slot:        item.SlotRef(),
	}

	base, duration, err := t.loadProduct(ctx, line)
	if err != nil {
		return nil, err
	}
	if err := t.resolveSlot(ctx, line, duration); err != nil {
		return nil, err
	}
	if line.PhysicalSlot != nil && line.PhysicalSlot.Price != nil {
		base = *line.PhysicalSlot.Price
	}

	q := Query{
		TargetType: itemType.Target(),
		TargetID:   line.TargetID,
		Date:       date,
		Time:       pricingTime(line),
	}
	if !line.Slot.IsZero() {
		st := itemType.Target()
		q.SlotType = &st
		q.SlotID = line.Slot.String()
	}

	price, err := t.resolver.ComputeUnitPrice(ctx, q, base)
	if err != nil {
		return nil, fmt.Errorf("failed to price %s %d: %w", itemType, line.TargetID, err)
	}

	addons, addonsTotal, err := t.normalizeAddons(ctx, item.Addons)
	if err != nil {
		return nil, err
	}

	qty := decimal.NewFromInt(int64(item.Quantity))
	discount := LineDiscount(price, q.TargetType, q.TargetID, item.Quantity).Round(2)

	line.BaseUnit = price.Base
	line.UnitDiscount = discount.Div(qty).Round(2)
	line.UnitPrice = price.Base.Sub(line.UnitDiscount)
	line.TicketsTotal = price.Base.Mul(qty).Sub(discount).Round(2)
	line.AddonsTotal = addonsTotal.Round(2)
	line.TotalAmount = price.Base.Mul(qty).Add(addonsTotal).Round(2)
	line.DiscountAmount = discount
	line.FinalAmount = decimal.Max(line.TotalAmount.Sub(discount), decimal.Zero)
	line.Addons = addons
	line.Offer = price.Offer

	return line, nil
}

func (t *Totalizer) loadProduct(ctx context.Context, line *Line) (decimal.Decimal, int, error) {
	switch line.Type {
	case model.ItemCombo:
		combo, err := t.catalog.GetCombo(ctx, line.TargetID)
		if err != nil {
			return decimal.Zero, 0, fmt.Errorf("failed to load combo: %w", err)
		}
		if combo == nil || !combo.Active {
			return decimal.Zero, 0, model.NotFound(model.ErrCodeComboNotFound, "combo %d not found", line.TargetID)
		}
		line.Combo = combo
		return combo.TotalPrice, combo.DurationHours(), nil
	default:
		a, err := t.catalog.GetAttraction(ctx, line.TargetID)
		if err != nil {
			return decimal.Zero, 0, fmt.Errorf("failed to load attraction: %w", err)
		}
		if a == nil || !a.Active {
			return decimal.Zero, 0, model.NotFound(model.ErrCodeAttractionNotFound, "attraction %d not found", line.TargetID)
		}
		line.Attraction = a
		return a.BasePrice, 1, nil
	}
}

func (t *Totalizer) resolveSlot(ctx context.Context, line *Line, durationHours int) error {
	ref := line.Slot
	switch ref.Kind() {
	case slot.KindPhysical:
		s, err := t.catalog.GetSlot(ctx, line.Type.Target(), ref.ID())
		if err != nil {
			return fmt.Errorf("failed to load slot: %w", err)
		}
		if s == nil {
			return model.NotFound(model.ErrCodeSlotNotFound, "slot %d not found", ref.ID())
		}
		if s.TargetID != line.TargetID {
			return model.Validation(model.ErrCodeInvalidSlot, "slot %d does not belong to %s %d", ref.ID(), line.Type, line.TargetID)
		}
		if !slot.DateOnly(s.Date).Equal(line.BookingDate) {
			return model.Validation(model.ErrCodeInvalidSlot, "slot %d is not on %s", ref.ID(), line.BookingDate.Format(slot.DateLayout))
		}
		if !s.Available {
			return model.Validation(model.ErrCodeInvalidSlot, "slot %d is not available", ref.ID())
		}
		w := s.Window
		line.PhysicalSlot = s
		line.Window = &w
		line.Capacity = s.Capacity

	case slot.KindVirtual:
		if ref.TargetID() != line.TargetID {
			return model.Validation(model.ErrCodeInvalidSlot, "slot %s does not belong to %s %d", ref, line.Type, line.TargetID)
		}
		if !ref.Date().Equal(line.BookingDate) {
			return model.Validation(model.ErrCodeInvalidSlot, "slot %s is not on %s", ref, line.BookingDate.Format(slot.DateLayout))
		}
		g, err := t.schedule.Resolve(ref, durationHours)
		if err != nil {
			return model.Validation(model.ErrCodeInvalidSlot, "%v", err)
		}
		w := g.Window
		line.Window = &w
		line.Capacity = g.Capacity
	}
	return nil
}

// normalizeAddons prices add-ons at their current price less their own
// discount. Repeated add-on ids are merged.
func (t *Totalizer) normalizeAddons(ctx context.Context, selected []model.AddonSelect) ([]model.BookingAddon, decimal.Decimal, error) {
	total := decimal.Zero
	if len(selected) == 0 {
		return nil, total, nil
	}

	index := make(map[int64]int, len(selected))
	out := make([]model.BookingAddon, 0, len(selected))
	for _, sel := range selected {
		if i, ok := index[sel.AddonID]; ok {
			out[i].Quantity += sel.Quantity
			continue
		}

		a, err := t.catalog.GetAddon(ctx, sel.AddonID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("failed to load addon: %w", err)
		}
		if a == nil || !a.Active {
			return nil, decimal.Zero, model.NotFound(model.ErrCodeAddonNotFound, "addon %d not found", sel.AddonID)
		}

		index[sel.AddonID] = len(out)
		out = append(out, model.BookingAddon{
			AddonID:  a.ID,
			Quantity: sel.Quantity,
			Price:    a.UnitPrice().Round(2),
		})
	}

	for _, ba := range out {
		total = total.Add(ba.Price.Mul(decimal.NewFromInt(int64(ba.Quantity))))
	}
	return out, total, nil
}

// pricingTime is the resolved slot start, else the client supplied start
// time of an unslotted line.
func pricingTime(line *Line) *slot.TimeOfDay {
	if line.Window != nil {
		start := line.Window.Start
		return &start
	}
	if line.Item.SlotStartTime != nil {
		if t, err := slot.ParseTimeOfDay(*line.Item.SlotStartTime); err == nil {
			return &t
		}
	}
	return nil
}
