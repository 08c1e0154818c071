package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"attraction-booking/internal/config"
	"attraction-booking/internal/coupon"
	"attraction-booking/internal/database"
	"attraction-booking/internal/events"
	"attraction-booking/internal/fulfilment"
	"attraction-booking/internal/handler"
	"attraction-booking/internal/holiday"
	"attraction-booking/internal/pricing"
	"attraction-booking/internal/repository"
	"attraction-booking/internal/router"
	"attraction-booking/internal/service"
	"attraction-booking/internal/slot"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestAPIKey is the key the test router accepts.
const TestAPIKey = "integration-key"

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, applies the schema and
// seeds the catalog.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		MaxConnections:   20,
		MinConnections:   2,
		MaxConnLifetime:  300,
		StatementTimeout: 10 * time.Second,
		IdleTxTimeout:    10 * time.Second,
	}

	pool, err := database.NewPoolWithDSN(ctx, connStr, dbConfig, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	SeedCatalog(t, pool)

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// BookingDay is the date every seeded stored slot is on.
var BookingDay = time.Date(2030, 1, 5, 0, 0, 0, 0, time.UTC)

// SeedCatalog inserts the test catalog:
//   - attractions 1 (500) and 2 (450)
//   - combo 3 = [1, 2] with shares 400/450, total 850
//   - addon 5 at 100 with 10% off
//   - attraction slot 11 (attraction 1, 14:00-15:00, capacity 1)
//   - attraction slot 12 (attraction 2, 16:00-17:00, capacity 10)
//   - combo slot 21 (combo 3, 10:00-12:00, capacity 5)
//   - offer 1: 10% off attraction 1
//   - coupon SAVE10: flat 50
//   - user 1 with email and phone
func SeedCatalog(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		INSERT INTO attractions (id, name, base_price, active) VALUES
			(1, 'Snow Park', 500, TRUE),
			(2, 'Mirror Maze', 450, TRUE);
		INSERT INTO combos (id, name, attraction_ids, attraction_prices, total_price, active) VALUES
			(3, 'Snow + Maze', '{1,2}', '{"1": 400, "2": 450}', 850, TRUE);
		INSERT INTO addons (id, name, price, discount_percent, active) VALUES
			(5, 'Locker', 100, 10, TRUE);
		INSERT INTO attraction_slots (id, attraction_id, slot_date, start_time, end_time, capacity, available) VALUES
			(11, 1, '2030-01-05', '14:00', '15:00', 1, TRUE),
			(12, 2, '2030-01-05', '16:00', '17:00', 10, TRUE);
		INSERT INTO combo_slots (id, combo_id, slot_date, start_time, end_time, capacity, available) VALUES
			(21, 3, '2030-01-05', '10:00', '12:00', 5, TRUE);
		INSERT INTO offers (id, title, rule_type, discount_type, discount_value, active) VALUES
			(1, 'Snow Park Weekender', 'plain', 'percent', 10, TRUE);
		INSERT INTO offer_rules (offer_id, target_type, target_id, priority) VALUES
			(1, 'attraction', 1, 1);
		INSERT INTO coupons (code, discount_type, discount_value, active) VALUES
			('SAVE10', 'amount', 50, TRUE);
		INSERT INTO users (id, name, email, phone) VALUES
			(1, 'Test Guest', 'guest@example.com', '+15550100');
		SELECT setval('offers_id_seq', 100);
	`)
	if err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
}

// Stack is the service graph wired against the test database, with tickets
// delivered in process and no message broker.
type Stack struct {
	Orders    service.OrderService
	Pricing   service.PricingService
	Offers    service.OfferService
	Inline    *fulfilment.InlineEnqueuer
	Handler   http.Handler
	TicketDir string
}

// NewStack builds the services over pool. Tickets are written to a
// temporary directory.
func NewStack(t *testing.T, pool *pgxpool.Pool) *Stack {
	t.Helper()
	logger := zerolog.Nop()

	catalogRepo := repository.NewCatalogRepository(pool, logger)
	slotRepo := repository.NewSlotRepository(pool, logger)
	offerRepo := repository.NewOfferRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	bookingRepo := repository.NewBookingRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)

	schedule := slot.DefaultSchedule()
	matcher := pricing.NewMatcher(offerRepo, holiday.Empty(), logger)
	totalizer := pricing.NewTotalizer(catalogRepo, pricing.NewResolver(matcher, logger),
		coupon.NewService(couponRepo, logger), schedule, logger)

	ticketDir := t.TempDir()
	processor := fulfilment.NewProcessor(orderRepo, bookingRepo, userRepo,
		fulfilment.NewTicketGenerator(fulfilment.NewLocalStore(ticketDir, "/tickets"), logger),
		fulfilment.Senders{}, logger)
	inline := fulfilment.NewInlineEnqueuer(processor, logger)

	s := &Stack{
		Orders: service.NewOrderService(orderRepo, bookingRepo, totalizer,
			service.NewCapacityGuard(slotRepo, logger), inline, events.NopPublisher{}, 30*time.Minute, logger),
		Pricing:   service.NewPricingService(catalogRepo, slotRepo, totalizer, schedule, logger),
		Offers:    service.NewOfferService(offerRepo, nil, logger),
		Inline:    inline,
		TicketDir: ticketDir,
	}
	s.Handler = router.New(router.Handlers{
		Orders:  handler.NewOrderHandler(s.Orders, logger),
		Pricing: handler.NewPricingHandler(s.Pricing, logger),
		Offers:  handler.NewOfferHandler(s.Offers, logger),
	}, TestAPIKey, ticketDir, logger)

	return s
}

// Count returns the number of rows in table matching where.
func Count(t *testing.T, pool *pgxpool.Pool, table, where string, args ...any) int {
	t.Helper()
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	if err := pool.QueryRow(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

// CleanupOrders removes every order and booking.
func CleanupOrders(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), "TRUNCATE booking_addons, bookings, orders RESTART IDENTITY"); err != nil {
		t.Fatalf("failed to clean orders: %v", err)
	}
}
