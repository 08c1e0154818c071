//go:build ignore

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"attraction-booking/internal/config"
	"attraction-booking/internal/database"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// check_db connects with the DB_* settings, optionally applies the schema,
// and prints row counts and today's open slots.
func main() {
	migrate := flag.Bool("migrate", false, "apply the embedded schema before checking")
	date := flag.String("date", "", "slot date to report (YYYY-MM-DD, default today)")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully connected to database: %s\n", dbName)

	if *migrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Schema applied")
	}

	fmt.Println("\nRow counts:")
	for _, table := range []string{"attractions", "combos", "attraction_slots", "combo_slots", "offers", "coupons", "orders", "bookings"} {
		var n int
		if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			fmt.Printf("  - %-18s error: %v\n", table, err)
			continue
		}
		fmt.Printf("  - %-18s %d\n", table, n)
	}

	day := "CURRENT_DATE"
	args := []any{}
	if *date != "" {
		day = "$1::date"
		args = append(args, *date)
	}
	rows, err := pool.Query(ctx, `
		SELECT s.id, s.attraction_id, s.start_time::text, s.end_time::text, s.capacity,
		       s.capacity - COALESCE(SUM(b.quantity) FILTER (WHERE b.booking_status <> 'Cancelled'), 0)
		FROM attraction_slots s
		LEFT JOIN bookings b ON b.slot_id = s.id
		WHERE s.slot_date = `+day+`
		GROUP BY s.id
		ORDER BY s.attraction_id, s.start_time`, args...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Slot query failed: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	fmt.Println("\nAttraction slots:")
	for rows.Next() {
		var id, attractionID int64
		var start, end string
		var capacity, remaining int
		if err := rows.Scan(&id, &attractionID, &start, &end, &capacity, &remaining); err != nil {
			fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  - slot %d (attraction %d) %s-%s: %d/%d left\n", id, attractionID, start, end, remaining, capacity)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Row iteration failed: %v\n", err)
		os.Exit(1)
	}
}
