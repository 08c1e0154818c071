package service

import (
	"context"
	"time"

	"attraction-booking/internal/events"
	"attraction-booking/internal/model"
	"attraction-booking/internal/pricing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a MockTx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateBooking(ctx context.Context, tx pgx.Tx, booking *model.Booking) error {
	args := m.Called(ctx, tx, booking)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateBookingAddons(ctx context.Context, tx pgx.Tx, addons []model.BookingAddon) error {
	args := m.Called(ctx, tx, addons)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, []model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Get(1).([]model.Booking), args.Error(2)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdatePayment(ctx context.Context, tx pgx.Tx, id int64, update model.PaymentUpdate) error {
	args := m.Called(ctx, tx, id, update)
	return args.Error(0)
}

func (m *MockOrderRepository) ListExpiredUnpaid(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingRepository) SetTicket(ctx context.Context, id int64, location string) error {
	return m.Called(ctx, id, location).Error(0)
}

func (m *MockBookingRepository) MarkWhatsappSent(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBookingRepository) MarkEmailSent(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// MockSlotRepository is a mock implementation of SlotRepository.
type MockSlotRepository struct {
	mock.Mock
}

func (m *MockSlotRepository) LockForUpdate(ctx context.Context, tx pgx.Tx, targetType model.TargetType, id int64) (*model.Slot, error) {
	args := m.Called(ctx, tx, targetType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Slot), args.Error(1)
}

func (m *MockSlotRepository) BookedQuantity(ctx context.Context, tx pgx.Tx, targetType model.TargetType, id int64) (int, error) {
	args := m.Called(ctx, tx, targetType, id)
	return args.Int(0), args.Error(1)
}

func (m *MockSlotRepository) GetSlotAvailability(ctx context.Context, targetType model.TargetType, id int64) (int, int, error) {
	args := m.Called(ctx, targetType, id)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockSlotRepository) BookedBySlot(ctx context.Context, targetType model.TargetType, ids []int64) (map[int64]int, error) {
	args := m.Called(ctx, targetType, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]int), args.Error(1)
}

// MockCatalogRepository is a mock implementation of CatalogRepository.
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) GetAttraction(ctx context.Context, id int64) (*model.Attraction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Attraction), args.Error(1)
}

func (m *MockCatalogRepository) GetCombo(ctx context.Context, id int64) (*model.Combo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Combo), args.Error(1)
}

func (m *MockCatalogRepository) GetAddon(ctx context.Context, id int64) (*model.Addon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Addon), args.Error(1)
}

func (m *MockCatalogRepository) GetSlot(ctx context.Context, targetType model.TargetType, id int64) (*model.Slot, error) {
	args := m.Called(ctx, targetType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Slot), args.Error(1)
}

func (m *MockCatalogRepository) ListSlots(ctx context.Context, targetType model.TargetType, targetID int64, date time.Time) ([]model.Slot, error) {
	args := m.Called(ctx, targetType, targetID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Slot), args.Error(1)
}

// MockOfferRepository is a mock implementation of OfferRepository.
type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) ApplicableRules(ctx context.Context, targetType model.TargetType) ([]model.ApplicableRule, error) {
	args := m.Called(ctx, targetType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ApplicableRule), args.Error(1)
}

func (m *MockOfferRepository) DynamicRules(ctx context.Context, targetType model.TargetType) ([]model.DynamicPricingRule, error) {
	args := m.Called(ctx, targetType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DynamicPricingRule), args.Error(1)
}

func (m *MockOfferRepository) Create(ctx context.Context, offer *model.Offer) error {
	return m.Called(ctx, offer).Error(0)
}

func (m *MockOfferRepository) GetByID(ctx context.Context, id int64) (*model.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offer), args.Error(1)
}

func (m *MockOfferRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockCartPricer is a mock implementation of CartPricer.
type MockCartPricer struct {
	mock.Mock
}

func (m *MockCartPricer) ComputeTotalsMulti(ctx context.Context, items []model.CartItem, couponCode string, onDate time.Time) (*pricing.Cart, error) {
	args := m.Called(ctx, items, couponCode, onDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Cart), args.Error(1)
}

// MockEnqueuer is a mock implementation of fulfilment.Enqueuer.
type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueFulfilment(ctx context.Context, orderID int64, bookingID *int64) error {
	return m.Called(ctx, orderID, bookingID).Error(0)
}

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e events.OrderEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

// MockInvalidator is a mock implementation of RuleInvalidator.
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }
