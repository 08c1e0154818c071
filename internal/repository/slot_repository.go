package repository

import (
	"context"
	"errors"
	"fmt"

	"attraction-booking/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// slotRepository implements SlotRepository using PostgreSQL.
type slotRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSlotRepository creates a new PostgreSQL-backed capacity store.
func NewSlotRepository(pool *pgxpool.Pool, logger zerolog.Logger) SlotRepository {
	return &slotRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "slot").Logger(),
	}
}

// bookingSlotColumn is the bookings column that references a slot table.
func bookingSlotColumn(targetType model.TargetType) string {
	if targetType == model.TargetCombo {
		return "combo_slot_id"
	}
	return "slot_id"
}

// LockForUpdate blocks until no other transaction holds the slot row.
func (r *slotRepository) LockForUpdate(ctx context.Context, tx pgx.Tx, targetType model.TargetType, id int64) (*model.Slot, error) {
	query, err := slotQuery(targetType, "WHERE id = $1 FOR UPDATE")
	if err != nil {
		return nil, err
	}

	s, err := scanSlot(tx.QueryRow(ctx, query, id), targetType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("slot_id", id).Msg("failed to lock slot")
		return nil, fmt.Errorf("failed to lock slot: %w", err)
	}

	r.logger.Debug().Int64("slot_id", id).Str("target_type", string(targetType)).Msg("slot locked")
	return s, nil
}

func (r *slotRepository) BookedQuantity(ctx context.Context, tx pgx.Tx, targetType model.TargetType, id int64) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(quantity), 0)
		FROM bookings
		WHERE %s = $1 AND booking_status <> $2
	`, bookingSlotColumn(targetType))

	var booked int
	if err := tx.QueryRow(ctx, query, id, model.BookingCancelled).Scan(&booked); err != nil {
		r.logger.Error().Err(err).Int64("slot_id", id).Msg("failed to sum booked quantity")
		return 0, fmt.Errorf("failed to sum booked quantity: %w", err)
	}
	return booked, nil
}

func (r *slotRepository) GetSlotAvailability(ctx context.Context, targetType model.TargetType, id int64) (int, int, error) {
	table, err := slotTable(targetType)
	if err != nil {
		return 0, 0, err
	}

	query := fmt.Sprintf(`
		SELECT s.capacity, COALESCE(SUM(b.quantity), 0)
		FROM %s s
		LEFT JOIN bookings b ON b.%s = s.id AND b.booking_status <> $2
		WHERE s.id = $1
		GROUP BY s.capacity
	`, table, bookingSlotColumn(targetType))

	var capacity, booked int
	err = r.pool.QueryRow(ctx, query, id, model.BookingCancelled).Scan(&capacity, &booked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, model.NotFound(model.ErrCodeSlotNotFound, "slot %d not found", id)
		}
		r.logger.Error().Err(err).Int64("slot_id", id).Msg("failed to query slot availability")
		return 0, 0, fmt.Errorf("failed to query slot availability: %w", err)
	}
	return capacity, booked, nil
}

func (r *slotRepository) BookedBySlot(ctx context.Context, targetType model.TargetType, ids []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	col := bookingSlotColumn(targetType)
	query := fmt.Sprintf(`
		SELECT %s, SUM(quantity)
		FROM bookings
		WHERE %s = ANY($1) AND booking_status <> $2
		GROUP BY %s
	`, col, col, col)

	rows, err := r.pool.Query(ctx, query, ids, model.BookingCancelled)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query booked quantities")
		return nil, fmt.Errorf("failed to query booked quantities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var booked int
		if err := rows.Scan(&id, &booked); err != nil {
			return nil, fmt.Errorf("failed to scan booked quantity: %w", err)
		}
		out[id] = booked
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating booked quantities: %w", err)
	}
	return out, nil
}
