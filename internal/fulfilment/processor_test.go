package fulfilment

import (
	"context"
	"errors"
	"testing"

	"attraction-booking/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderReader struct {
	mock.Mock
}

func (m *MockOrderReader) GetByID(ctx context.Context, id int64) (*model.Order, []model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Get(1).([]model.Booking), args.Error(2)
}

type MockBookingMarker struct {
	mock.Mock
}

func (m *MockBookingMarker) SetTicket(ctx context.Context, id int64, location string) error {
	return m.Called(ctx, id, location).Error(0)
}

func (m *MockBookingMarker) MarkWhatsappSent(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBookingMarker) MarkEmailSent(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) GetByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockTicketMaker struct {
	mock.Mock
}

func (m *MockTicketMaker) Generate(ctx context.Context, order *model.Order, b *model.Booking) (*Ticket, error) {
	args := m.Called(ctx, order, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Ticket), args.Error(1)
}

type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) SendTicket(ctx context.Context, to string, order *model.Order, b *model.Booking, t *Ticket) error {
	return m.Called(ctx, to, order, b, t).Error(0)
}

func completedOrder() *model.Order {
	uid := int64(7)
	return &model.Order{ID: 1, Ref: "ORD-1", UserID: &uid, PaymentStatus: model.PaymentCompleted}
}

func customer() *model.User {
	email, phone := "guest@example.com", "+15550100"
	return &model.User{ID: 7, Name: "Guest", Email: &email, Phone: &phone}
}

type processorMocks struct {
	orders   *MockOrderReader
	bookings *MockBookingMarker
	users    *MockUserReader
	tickets  *MockTicketMaker
	email    *MockMessenger
	whatsapp *MockMessenger
}

func newTestProcessor() (*Processor, processorMocks) {
	m := processorMocks{
		orders:   new(MockOrderReader),
		bookings: new(MockBookingMarker),
		users:    new(MockUserReader),
		tickets:  new(MockTicketMaker),
		email:    new(MockMessenger),
		whatsapp: new(MockMessenger),
	}
	p := NewProcessor(m.orders, m.bookings, m.users, m.tickets,
		Senders{Email: m.email, WhatsApp: m.whatsapp}, zerolog.Nop())
	return p, m
}

func TestProcessor_FulfilOrder_DeliversTopLevelBookings(t *testing.T) {
	ctx := context.Background()
	p, m := newTestProcessor()

	parent := int64(10)
	order := completedOrder()
	bookings := []model.Booking{
		{ID: 10, OrderID: 1, BookingStatus: model.BookingBooked},
		{ID: 11, OrderID: 1, BookingStatus: model.BookingBooked, ParentBookingID: &parent},
		{ID: 12, OrderID: 1, BookingStatus: model.BookingBooked, EmailSent: true},
	}
	ticket := &Ticket{Name: "t.png", Location: "/tickets/t.png"}

	m.orders.On("GetByID", ctx, int64(1)).Return(order, bookings, nil)
	m.users.On("GetByID", ctx, int64(7)).Return(customer(), nil)
	m.tickets.On("Generate", ctx, order, mock.Anything).Return(ticket, nil)
	m.bookings.On("SetTicket", ctx, mock.Anything, "/tickets/t.png").Return(nil)
	m.whatsapp.On("SendTicket", ctx, "+15550100", order, mock.Anything, ticket).Return(nil)
	m.bookings.On("MarkWhatsappSent", ctx, mock.Anything).Return(nil)
	m.email.On("SendTicket", ctx, "guest@example.com", order, mock.Anything, ticket).Return(nil)
	m.bookings.On("MarkEmailSent", ctx, int64(10)).Return(nil)

	res, err := p.FulfilOrder(ctx, 1, nil)
	require.NoError(t, err)

	assert.Equal(t, Result{Tickets: 2, WhatsApp: 2, Email: 1}, res)
	m.tickets.AssertNumberOfCalls(t, "Generate", 2)
	m.bookings.AssertNotCalled(t, "SetTicket", ctx, int64(11), mock.Anything)
	m.bookings.AssertNotCalled(t, "MarkEmailSent", ctx, int64(12))
}

func TestProcessor_FulfilOrder_FailuresAreNotPropagated(t *testing.T) {
	ctx := context.Background()
	p, m := newTestProcessor()

	order := completedOrder()
	bookings := []model.Booking{{ID: 10, OrderID: 1, BookingStatus: model.BookingBooked}}

	m.orders.On("GetByID", ctx, int64(1)).Return(order, bookings, nil)
	m.users.On("GetByID", ctx, int64(7)).Return(customer(), nil)
	m.tickets.On("Generate", ctx, order, mock.Anything).Return(nil, errors.New("disk full"))
	m.whatsapp.On("SendTicket", ctx, mock.Anything, order, mock.Anything, (*Ticket)(nil)).Return(errors.New("api down"))
	m.email.On("SendTicket", ctx, mock.Anything, order, mock.Anything, (*Ticket)(nil)).Return(nil)
	m.bookings.On("MarkEmailSent", ctx, int64(10)).Return(nil)

	res, err := p.FulfilOrder(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Email: 1}, res)
	m.bookings.AssertNotCalled(t, "SetTicket", mock.Anything, mock.Anything, mock.Anything)
	m.bookings.AssertNotCalled(t, "MarkWhatsappSent", mock.Anything, mock.Anything)
}

func TestProcessor_FulfilOrder_Resend(t *testing.T) {
	ctx := context.Background()
	p, m := newTestProcessor()

	order := completedOrder()
	bookings := []model.Booking{
		{ID: 10, OrderID: 1, BookingStatus: model.BookingBooked, WhatsappSent: true, EmailSent: true},
		{ID: 12, OrderID: 1, BookingStatus: model.BookingBooked},
	}
	ticket := &Ticket{Location: "/tickets/x.png"}

	m.orders.On("GetByID", ctx, int64(1)).Return(order, bookings, nil)
	m.users.On("GetByID", ctx, int64(7)).Return(customer(), nil)
	m.tickets.On("Generate", ctx, order, &bookings[0]).Return(ticket, nil)
	m.bookings.On("SetTicket", ctx, int64(10), "/tickets/x.png").Return(nil)
	m.whatsapp.On("SendTicket", ctx, mock.Anything, order, &bookings[0], ticket).Return(nil)
	m.bookings.On("MarkWhatsappSent", ctx, int64(10)).Return(nil)
	m.email.On("SendTicket", ctx, mock.Anything, order, &bookings[0], ticket).Return(nil)
	m.bookings.On("MarkEmailSent", ctx, int64(10)).Return(nil)

	id := int64(10)
	res, err := p.FulfilOrder(ctx, 1, &id)
	require.NoError(t, err)
	assert.Equal(t, Result{Tickets: 1, WhatsApp: 1, Email: 1}, res)
}

func TestProcessor_FulfilOrder_SkipsAndErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("pending order is skipped", func(t *testing.T) {
		p, m := newTestProcessor()
		order := completedOrder()
		order.PaymentStatus = model.PaymentPending
		m.orders.On("GetByID", ctx, int64(1)).Return(order, []model.Booking{{ID: 10}}, nil)

		res, err := p.FulfilOrder(ctx, 1, nil)
		require.NoError(t, err)
		assert.Zero(t, res)
		m.tickets.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing order", func(t *testing.T) {
		p, m := newTestProcessor()
		m.orders.On("GetByID", ctx, int64(1)).Return(nil, nil, nil)

		_, err := p.FulfilOrder(ctx, 1, nil)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("load failure", func(t *testing.T) {
		p, m := newTestProcessor()
		m.orders.On("GetByID", ctx, int64(1)).Return(nil, nil, errors.New("connection reset"))

		_, err := p.FulfilOrder(ctx, 1, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load order")
	})

	t.Run("guest order gets a ticket only", func(t *testing.T) {
		p, m := newTestProcessor()
		order := completedOrder()
		order.UserID = nil
		ticket := &Ticket{Location: "/tickets/g.png"}
		m.orders.On("GetByID", ctx, int64(1)).Return(order, []model.Booking{{ID: 10}}, nil)
		m.tickets.On("Generate", ctx, order, mock.Anything).Return(ticket, nil)
		m.bookings.On("SetTicket", ctx, int64(10), "/tickets/g.png").Return(nil)

		res, err := p.FulfilOrder(ctx, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, Result{Tickets: 1}, res)
		m.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}
