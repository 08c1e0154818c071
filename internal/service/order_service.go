package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"attraction-booking/internal/events"
	"attraction-booking/internal/fulfilment"
	"attraction-booking/internal/model"
	"attraction-booking/internal/pricing"
	"attraction-booking/internal/repository"
	"attraction-booking/internal/slot"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const expireBatchSize = 100

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	bookingRepo repository.BookingRepository
	pricer      CartPricer
	guard       *CapacityGuard
	enqueuer    fulfilment.Enqueuer
	publisher   events.Publisher
	pendingTTL  time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	bookingRepo repository.BookingRepository,
	pricer CartPricer,
	guard *CapacityGuard,
	enqueuer fulfilment.Enqueuer,
	publisher events.Publisher,
	pendingTTL time.Duration,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		bookingRepo: bookingRepo,
		pricer:      pricer,
		guard:       guard,
		enqueuer:    enqueuer,
		publisher:   publisher,
		pendingTTL:  pendingTTL,
		now:         time.Now,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder runs the pricing pass without touching the database, then
// writes the order, its bookings, combo child bookings and add-ons in one
// transaction. Any failure rolls everything back.
func (s *orderService) CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (resp *model.OrderResponse, err error) {
	if req == nil {
		return nil, model.Validation(model.ErrCodeInvalidCartItem, "order request is nil")
	}
	if verr := req.Validate(); verr != nil {
		return nil, model.Validation(model.ErrCodeInvalidCartItem, "invalid order request: %v", verr)
	}

	couponCode, err := req.Coupon()
	if err != nil {
		return nil, err
	}

	cart, err := s.pricer.ComputeTotalsMulti(ctx, req.Items, couponCode, slot.DateOnly(s.now()))
	if err != nil {
		s.logger.Warn().Err(err).Int("item_count", len(req.Items)).Msg("cart pricing failed")
		return nil, err
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.guard.LockAll(ctx, tx, cart.Lines); err != nil {
		return nil, err
	}

	order := &model.Order{
		Ref:            newOrderRef(),
		UserID:         req.UserID,
		TotalAmount:    cart.Gross,
		DiscountAmount: cart.Discount,
		CouponDiscount: cart.CouponDiscount,
		FinalAmount:    cart.Final,
		PaymentStatus:  model.PaymentPending,
		PaymentMode:    req.PaymentMode,
	}
	if cart.Coupon != nil {
		code := cart.Coupon.Code
		order.CouponCode = &code
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_ref", order.Ref).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	bookings := make([]model.Booking, 0, len(cart.Lines))
	for i := range cart.Lines {
		line := &cart.Lines[i]

		if err = s.guard.Check(ctx, tx, line); err != nil {
			s.logger.Warn().
				Err(err).
				Int("item_index", i).
				Str("slot_id", line.Slot.String()).
				Msg("capacity check failed")
			return nil, err
		}

		b := newBooking(order, line)
		if err = s.orderRepo.CreateBooking(ctx, tx, &b); err != nil {
			s.logger.Error().Err(err).Int64("order_id", order.ID).Int("item_index", i).Msg("failed to create booking")
			return nil, fmt.Errorf("failed to create booking: %w", err)
		}

		if len(line.Addons) > 0 {
			addons := make([]model.BookingAddon, len(line.Addons))
			copy(addons, line.Addons)
			for j := range addons {
				addons[j].BookingID = b.ID
			}
			if err = s.orderRepo.CreateBookingAddons(ctx, tx, addons); err != nil {
				s.logger.Error().Err(err).Int64("booking_id", b.ID).Msg("failed to create booking addons")
				return nil, fmt.Errorf("failed to create booking addons: %w", err)
			}
			b.Addons = addons
		}
		bookings = append(bookings, b)

		if line.Type == model.ItemCombo && line.Combo != nil {
			var children []model.Booking
			children, err = s.createChildBookings(ctx, tx, order, line, &b)
			if err != nil {
				return nil, err
			}
			bookings = append(bookings, children...)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Str("order_ref", order.Ref).
		Int("booking_count", len(bookings)).
		Str("final_amount", order.FinalAmount.String()).
		Msg("order created successfully")

	s.publish(ctx, events.NewOrderEvent(events.OrderCreated, order, len(bookings)))

	return &model.OrderResponse{
		OrderID:  order.ID,
		Order:    *order,
		Bookings: bookings,
	}, nil
}

// createChildBookings writes one attraction booking per combo attraction,
// each holding its time segment and price share of the parent line.
func (s *orderService) createChildBookings(ctx context.Context, tx pgx.Tx, order *model.Order, line *pricing.Line, parent *model.Booking) ([]model.Booking, error) {
	shares := pricing.SplitCombo(line.Combo, line.Window, pricing.ComboAmounts{
		Tickets:  parent.TotalAmount.Sub(line.AddonsTotal),
		Addons:   line.AddonsTotal,
		Discount: parent.DiscountAmount,
		Final:    parent.FinalAmount,
	})
	children := make([]model.Booking, 0, len(shares))

	for _, share := range shares {
		attractionID := share.AttractionID
		parentID := parent.ID
		child := model.Booking{
			OrderID:         order.ID,
			UserID:          order.UserID,
			ItemType:        model.ItemAttraction,
			AttractionID:    &attractionID,
			Quantity:        parent.Quantity,
			BookingDate:     parent.BookingDate,
			TotalAmount:     share.TotalAmount,
			DiscountAmount:  share.DiscountAmount,
			FinalAmount:     share.FinalAmount,
			PaymentStatus:   order.PaymentStatus,
			BookingStatus:   model.BookingBooked,
			ParentBookingID: &parentID,
		}
		child.SetDisplay(slot.ResolveDisplay(share.Window))

		if err := s.orderRepo.CreateBooking(ctx, tx, &child); err != nil {
			s.logger.Error().
				Err(err).
				Int64("parent_booking_id", parent.ID).
				Int64("attraction_id", attractionID).
				Msg("failed to create combo child booking")
			return nil, fmt.Errorf("failed to create child booking: %w", err)
		}
		children = append(children, child)
	}
	return children, nil
}

// GetOrder retrieves an order with its bookings.
func (s *orderService) GetOrder(ctx context.Context, id int64) (*model.OrderResponse, error) {
	order, bookings, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Int64("order_id", id).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return &model.OrderResponse{
		OrderID:  order.ID,
		Order:    *order,
		Bookings: bookings,
	}, nil
}

// ConfirmPayment applies a gateway verdict. A success for the exact final
// amount completes the order and queues fulfilment; a decline fails it. A
// gateway error leaves the order untouched.
func (s *orderService) ConfirmPayment(ctx context.Context, id int64, result model.PaymentResult) (order *model.Order, err error) {
	if verr := result.Validate(); verr != nil {
		return nil, model.Validation(model.ErrCodeInvalidJSON, "invalid payment result: %v", verr)
	}
	if result.GatewayError != "" {
		s.logger.Warn().Int64("order_id", id).Str("gateway_error", result.GatewayError).Msg("payment gateway error")
		return nil, model.NewDomainError(model.KindPaymentGateway, model.ErrCodeGatewayFailure,
			"payment gateway error: "+result.GatewayError)
	}

	next := model.PaymentFailed
	if result.Success {
		next = model.PaymentCompleted
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err = s.orderRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}

	// A repeated callback for an already applied success is acknowledged as is.
	if order.PaymentStatus == model.PaymentCompleted && result.Success &&
		order.PaymentRef != nil && *order.PaymentRef == result.Reference {
		if err = tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to confirm payment: %w", err)
		}
		return order, nil
	}

	if !order.PaymentStatus.CanTransition(next) {
		err = model.InvalidTransition(order.PaymentStatus, next)
		return nil, err
	}

	if result.Success && !result.Amount.Round(2).Equal(order.FinalAmount.Round(2)) {
		s.logger.Warn().
			Int64("order_id", id).
			Str("paid", result.Amount.String()).
			Str("expected", order.FinalAmount.String()).
			Msg("payment amount mismatch")
		err = model.ErrAmountMismatch
		return nil, err
	}

	update := model.PaymentUpdate{Status: next, Reference: &result.Reference}
	if result.Mode != "" {
		update.Mode = &result.Mode
	}
	if err = s.orderRepo.UpdatePayment(ctx, tx, id, update); err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to update payment")
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}

	order.PaymentStatus = next
	order.PaymentRef = update.Reference
	if update.Mode != nil {
		order.PaymentMode = update.Mode
	}

	s.logger.Info().
		Int64("order_id", id).
		Str("payment_status", string(next)).
		Str("payment_ref", result.Reference).
		Msg("payment applied")

	if next == model.PaymentCompleted {
		if qerr := s.enqueuer.EnqueueFulfilment(ctx, id, nil); qerr != nil {
			s.logger.Error().Err(qerr).Int64("order_id", id).Msg("failed to enqueue fulfilment")
		}
		s.publish(ctx, events.NewOrderEvent(events.OrderCompleted, order, 0))
	} else {
		s.publish(ctx, events.NewOrderEvent(events.OrderFailed, order, 0))
	}

	return order, nil
}

// CancelOrder cancels an order and cascades the cancellation to its bookings.
func (s *orderService) CancelOrder(ctx context.Context, id int64) (*model.Order, error) {
	return s.cancel(ctx, id, "cancelled")
}

func (s *orderService) cancel(ctx context.Context, id int64, reason string) (order *model.Order, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err = s.orderRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}

	if !order.PaymentStatus.CanTransition(model.PaymentCancelled) {
		err = model.InvalidTransition(order.PaymentStatus, model.PaymentCancelled)
		return nil, err
	}

	cancelled := model.BookingCancelled
	update := model.PaymentUpdate{Status: model.PaymentCancelled, BookingStatus: &cancelled}
	if err = s.orderRepo.UpdatePayment(ctx, tx, id, update); err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to cancel order")
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	order.PaymentStatus = model.PaymentCancelled
	s.logger.Info().Int64("order_id", id).Str("reason", reason).Msg("order cancelled")

	e := events.NewOrderEvent(events.OrderCancelled, order, 0)
	e.Reason = reason
	s.publish(ctx, e)

	return order, nil
}

// ResendTicket queues delivery again for a booking. Child bookings of a
// combo resend the combo ticket.
func (s *orderService) ResendTicket(ctx context.Context, bookingID int64) error {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("failed to get booking")
		return fmt.Errorf("failed to get booking: %w", err)
	}
	if b == nil {
		return model.ErrBookingNotFound
	}

	if b.PaymentStatus != model.PaymentCompleted || b.BookingStatus == model.BookingCancelled {
		return model.NewDomainError(model.KindInvalidTransition, model.ErrCodeOrderState,
			fmt.Sprintf("tickets are only sent for completed bookings, booking %d is %s/%s", b.ID, b.PaymentStatus, b.BookingStatus))
	}

	target := b.ID
	if b.ParentBookingID != nil {
		target = *b.ParentBookingID
	}

	if err := s.enqueuer.EnqueueFulfilment(ctx, b.OrderID, &target); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("failed to enqueue ticket resend")
		return fmt.Errorf("failed to resend ticket: %w", err)
	}

	s.logger.Info().Int64("booking_id", target).Int64("order_id", b.OrderID).Msg("ticket resend queued")
	return nil
}

// ExpirePending cancels Pending and Failed orders left unpaid for the pending
// TTL, releasing their slots. Orders paid in the meantime are skipped.
func (s *orderService) ExpirePending(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.pendingTTL)
	ids, err := s.orderRepo.ListExpiredUnpaid(ctx, cutoff, expireBatchSize)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list expired orders")
		return 0, fmt.Errorf("failed to list expired orders: %w", err)
	}

	cancelled := 0
	for _, id := range ids {
		if _, err := s.cancel(ctx, id, "expired"); err != nil {
			if model.KindOf(err) == model.KindInvalidTransition || model.KindOf(err) == model.KindNotFound {
				continue
			}
			s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to expire order")
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

func (s *orderService) publish(ctx context.Context, e events.OrderEvent) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn().Err(err).Str("event", e.Type).Int64("order_id", e.OrderID).Msg("failed to publish order event")
	}
}

func newBooking(order *model.Order, line *pricing.Line) model.Booking {
	targetID := line.TargetID
	b := model.Booking{
		OrderID:        order.ID,
		UserID:         order.UserID,
		ItemType:       line.Type,
		Quantity:       line.Quantity,
		BookingDate:    line.BookingDate,
		TotalAmount:    line.TotalAmount,
		DiscountAmount: line.DiscountAmount,
		FinalAmount:    line.FinalAmount,
		PaymentStatus:  order.PaymentStatus,
		BookingStatus:  model.BookingBooked,
	}

	if line.Type == model.ItemCombo {
		b.ComboID = &targetID
		b.ComboSlotID = line.Slot.PersistedID()
	} else {
		b.AttractionID = &targetID
		b.SlotID = line.Slot.PersistedID()
	}

	if line.Offer != nil && line.Offer.Source == pricing.SourceOffer {
		offerID := line.Offer.OfferID
		b.OfferID = &offerID
	}

	b.SetDisplay(line.Display())
	return b
}

func newOrderRef() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "ORD-" + id[:12]
}
