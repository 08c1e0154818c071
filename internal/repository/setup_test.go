package repository

import (
	"context"
	"testing"
	"time"

	"attraction-booking/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts PostgreSQL, applies the schema and seeds a small catalog.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))
	seedCatalog(t, pool)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return pool, cleanup
}

// seedCatalog inserts:
//   - attractions 1 (500) and 2 (450), attraction 9 inactive
//   - combo 3 = [1, 2] with shares 400/450, total 850
//   - addon 5 at 100 with 10% off
//   - attraction slot 11 (attraction 1, 2025-07-05 14:00-15:00, capacity 2, price 300)
//   - combo slot 21 (combo 3, 2025-07-05 10:00-12:00, capacity 5)
//   - user 1 with email and phone
func seedCatalog(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		INSERT INTO attractions (id, name, base_price, active) VALUES
			(1, 'Snow Park', 500, TRUE),
			(2, 'Mirror Maze', 450, TRUE),
			(9, 'Closed Ride', 300, FALSE);
		INSERT INTO combos (id, name, attraction_ids, attraction_prices, total_price, active) VALUES
			(3, 'Snow + Maze', '{1,2}', '{"1": 400, "2": "450"}', 850, TRUE);
		INSERT INTO addons (id, name, price, discount_percent, active) VALUES
			(5, 'Locker', 100, 10, TRUE);
		INSERT INTO attraction_slots (id, attraction_id, slot_date, start_time, end_time, capacity, price, available) VALUES
			(11, 1, '2025-07-05', '14:00', '15:00', 2, 300, TRUE);
		INSERT INTO combo_slots (id, combo_id, slot_date, start_time, end_time, capacity, available) VALUES
			(21, 3, '2025-07-05', '10:00', '12:00', 5, TRUE);
		INSERT INTO users (id, name, email, phone) VALUES
			(1, 'Test Guest', 'guest@example.com', '+15550100');
	`)
	require.NoError(t, err)
}

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func ptr[T any](v T) *T { return &v }
