package service

import (
	"context"
	"fmt"
	"time"

	"attraction-booking/internal/model"
	"attraction-booking/internal/pricing"
	"attraction-booking/internal/repository"
	"attraction-booking/internal/slot"

	"github.com/rs/zerolog"
)

// pricingService implements PricingService.
type pricingService struct {
	catalogRepo repository.CatalogRepository
	slotRepo    repository.SlotRepository
	pricer      CartPricer
	schedule    slot.Schedule
	now         func() time.Time
	logger      zerolog.Logger
}

// NewPricingService creates a new pricing service.
func NewPricingService(
	catalogRepo repository.CatalogRepository,
	slotRepo repository.SlotRepository,
	pricer CartPricer,
	schedule slot.Schedule,
	logger zerolog.Logger,
) PricingService {
	return &pricingService{
		catalogRepo: catalogRepo,
		slotRepo:    slotRepo,
		pricer:      pricer,
		schedule:    schedule,
		now:         time.Now,
		logger:      logger.With().Str("service", "pricing").Logger(),
	}
}

// Quote prices a cart exactly as order creation would.
func (s *pricingService) Quote(ctx context.Context, req *model.CreateOrderRequest) (*pricing.Cart, error) {
	if req == nil {
		return nil, model.Validation(model.ErrCodeInvalidCartItem, "quote request is nil")
	}
	if err := req.Validate(); err != nil {
		return nil, model.Validation(model.ErrCodeInvalidCartItem, "invalid quote request: %v", err)
	}

	couponCode, err := req.Coupon()
	if err != nil {
		return nil, err
	}

	cart, err := s.pricer.ComputeTotalsMulti(ctx, req.Items, couponCode, slot.DateOnly(s.now()))
	if err != nil {
		s.logger.Debug().Err(err).Msg("quote rejected")
		return nil, err
	}
	return cart, nil
}

// ListSlots returns the stored slots of a target on date followed by the
// generated virtual slots of the daily window.
func (s *pricingService) ListSlots(ctx context.Context, targetType model.TargetType, targetID int64, date time.Time) ([]model.SlotAvailability, error) {
	duration, err := s.durationHours(ctx, targetType, targetID)
	if err != nil {
		return nil, err
	}
	date = slot.DateOnly(date)

	stored, err := s.catalogRepo.ListSlots(ctx, targetType, targetID, date)
	if err != nil {
		s.logger.Error().Err(err).Int64("target_id", targetID).Msg("failed to list slots")
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	ids := make([]int64, len(stored))
	for i, st := range stored {
		ids[i] = st.ID
	}
	booked, err := s.slotRepo.BookedBySlot(ctx, targetType, ids)
	if err != nil {
		s.logger.Error().Err(err).Int64("target_id", targetID).Msg("failed to sum booked quantities")
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	generated := s.schedule.Generate(targetID, date, duration)
	out := make([]model.SlotAvailability, 0, len(stored)+len(generated))

	for _, st := range stored {
		n := booked[st.ID]
		available := 0
		if st.Available {
			available = max(st.Capacity-n, 0)
		}
		out = append(out, model.SlotAvailability{
			SlotID:    slot.Physical(st.ID),
			StartTime: st.Window.Start.String(),
			EndTime:   st.Window.End.String(),
			Label:     st.Window.Label(),
			Capacity:  st.Capacity,
			Booked:    n,
			Available: available,
		})
	}

	for _, g := range generated {
		out = append(out, model.SlotAvailability{
			SlotID:    g.Ref,
			Virtual:   true,
			StartTime: g.Window.Start.String(),
			EndTime:   g.Window.End.String(),
			Label:     g.Window.Label(),
			Capacity:  g.Capacity,
			Available: g.Capacity,
		})
	}
	return out, nil
}

func (s *pricingService) durationHours(ctx context.Context, targetType model.TargetType, targetID int64) (int, error) {
	switch targetType {
	case model.TargetAttraction:
		a, err := s.catalogRepo.GetAttraction(ctx, targetID)
		if err != nil {
			return 0, fmt.Errorf("failed to load attraction: %w", err)
		}
		if a == nil || !a.Active {
			return 0, model.NotFound(model.ErrCodeAttractionNotFound, "attraction %d not found", targetID)
		}
		return 1, nil
	case model.TargetCombo:
		c, err := s.catalogRepo.GetCombo(ctx, targetID)
		if err != nil {
			return 0, fmt.Errorf("failed to load combo: %w", err)
		}
		if c == nil || !c.Active {
			return 0, model.NotFound(model.ErrCodeComboNotFound, "combo %d not found", targetID)
		}
		return c.DurationHours(), nil
	default:
		return 0, model.Validation(model.ErrCodeInvalidSlot, "unknown target type %q", targetType)
	}
}
