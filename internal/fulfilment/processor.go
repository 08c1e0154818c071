package fulfilment

import (
	"context"
	"fmt"

	"attraction-booking/internal/model"

	"github.com/rs/zerolog"
)

// OrderReader loads an order with its bookings.
type OrderReader interface {
	GetByID(ctx context.Context, id int64) (*model.Order, []model.Booking, error)
}

// BookingMarker records fulfilment progress on a booking.
type BookingMarker interface {
	SetTicket(ctx context.Context, id int64, location string) error
	MarkWhatsappSent(ctx context.Context, id int64) error
	MarkEmailSent(ctx context.Context, id int64) error
}

// UserReader loads the customer contacts.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// TicketMaker renders the ticket artifact for a booking.
type TicketMaker interface {
	Generate(ctx context.Context, order *model.Order, b *model.Booking) (*Ticket, error)
}

// TicketMessenger delivers a ticket to one contact address.
type TicketMessenger interface {
	SendTicket(ctx context.Context, to string, order *model.Order, b *model.Booking, t *Ticket) error
}

// Senders holds the optional delivery channels. A nil channel is skipped.
type Senders struct {
	Email    TicketMessenger
	WhatsApp TicketMessenger
}

// Processor delivers tickets for completed orders. Every delivery step is
// best-effort: failures are logged and the remaining steps still run.
type Processor struct {
	orders   OrderReader
	bookings BookingMarker
	users    UserReader
	tickets  TicketMaker
	senders  Senders
	logger   zerolog.Logger
}

// NewProcessor creates a fulfilment processor.
func NewProcessor(orders OrderReader, bookings BookingMarker, users UserReader, tickets TicketMaker, senders Senders, logger zerolog.Logger) *Processor {
	return &Processor{
		orders:   orders,
		bookings: bookings,
		users:    users,
		tickets:  tickets,
		senders:  senders,
		logger:   logger.With().Str("component", "fulfilment").Logger(),
	}
}

// Result counts what a fulfilment run delivered.
type Result struct {
	Tickets  int
	WhatsApp int
	Email    int
}

// FulfilOrder delivers tickets for every top-level booking of a Completed
// order. With bookingID set only that booking is handled and delivery is
// repeated even if it already happened. Only loading the order can fail.
func (p *Processor) FulfilOrder(ctx context.Context, orderID int64, bookingID *int64) (Result, error) {
	var res Result

	order, bookings, err := p.orders.GetByID(ctx, orderID)
	if err != nil {
		return res, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return res, model.ErrOrderNotFound
	}
	if order.PaymentStatus != model.PaymentCompleted {
		p.logger.Info().
			Int64("order_id", orderID).
			Str("payment_status", string(order.PaymentStatus)).
			Msg("order not completed, skipping fulfilment")
		return res, nil
	}

	user := p.loadUser(ctx, order)
	resend := bookingID != nil

	for i := range bookings {
		b := &bookings[i]
		if b.ParentBookingID != nil || b.BookingStatus == model.BookingCancelled {
			continue
		}
		if resend && b.ID != *bookingID {
			continue
		}
		p.fulfilBooking(ctx, order, b, user, resend, &res)
	}

	p.logger.Info().
		Int64("order_id", orderID).
		Int("tickets", res.Tickets).
		Int("whatsapp", res.WhatsApp).
		Int("email", res.Email).
		Msg("order fulfilled")
	return res, nil
}

func (p *Processor) loadUser(ctx context.Context, order *model.Order) *model.User {
	if order.UserID == nil {
		return nil
	}
	user, err := p.users.GetByID(ctx, *order.UserID)
	if err != nil {
		p.logger.Warn().Err(err).Int64("order_id", order.ID).Msg("failed to load customer contacts")
		return nil
	}
	return user
}

func (p *Processor) fulfilBooking(ctx context.Context, order *model.Order, b *model.Booking, user *model.User, resend bool, res *Result) {
	log := p.logger.With().Int64("order_id", order.ID).Int64("booking_id", b.ID).Logger()

	ticket, err := p.tickets.Generate(ctx, order, b)
	if err != nil {
		log.Error().Err(err).Msg("ticket generation failed")
	} else if err := p.bookings.SetTicket(ctx, b.ID, ticket.Location); err != nil {
		log.Error().Err(err).Msg("failed to record ticket")
	} else {
		res.Tickets++
	}

	if user == nil {
		return
	}

	if p.senders.WhatsApp != nil && user.Phone != nil && (resend || !b.WhatsappSent) {
		if err := p.senders.WhatsApp.SendTicket(ctx, *user.Phone, order, b, ticket); err != nil {
			log.Warn().Err(err).Msg("whatsapp delivery failed")
		} else if err := p.bookings.MarkWhatsappSent(ctx, b.ID); err != nil {
			log.Error().Err(err).Msg("failed to flag whatsapp delivery")
		} else {
			res.WhatsApp++
		}
	}

	if p.senders.Email != nil && user.Email != nil && (resend || !b.EmailSent) {
		if err := p.senders.Email.SendTicket(ctx, *user.Email, order, b, ticket); err != nil {
			log.Warn().Err(err).Msg("email delivery failed")
		} else if err := p.bookings.MarkEmailSent(ctx, b.ID); err != nil {
			log.Error().Err(err).Msg("failed to flag email delivery")
		} else {
			res.Email++
		}
	}
}
