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

// bookingRepository implements BookingRepository using PostgreSQL.
type bookingRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewBookingRepository creates a new PostgreSQL-backed booking repository.
func NewBookingRepository(pool *pgxpool.Pool, logger zerolog.Logger) BookingRepository {
	return &bookingRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "booking").Logger(),
	}
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	var b model.Booking
	err := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id = $1`, id).Scan(bookingDest(&b)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("booking_id", id).Msg("booking not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("booking_id", id).Msg("failed to query booking")
		return nil, fmt.Errorf("failed to query booking: %w", err)
	}
	return &b, nil
}

func (r *bookingRepository) SetTicket(ctx context.Context, id int64, location string) error {
	return r.exec(ctx, id, "set ticket", `UPDATE bookings SET ticket_pdf = $2 WHERE booking_id = $1`, location)
}

func (r *bookingRepository) MarkWhatsappSent(ctx context.Context, id int64) error {
	return r.exec(ctx, id, "mark whatsapp sent", `UPDATE bookings SET whatsapp_sent = TRUE WHERE booking_id = $1`)
}

func (r *bookingRepository) MarkEmailSent(ctx context.Context, id int64) error {
	return r.exec(ctx, id, "mark email sent", `UPDATE bookings SET email_sent = TRUE WHERE booking_id = $1`)
}

func (r *bookingRepository) exec(ctx context.Context, id int64, action, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		r.logger.Error().Err(err).Int64("booking_id", id).Msg("failed to " + action)
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookingNotFound
	}
	return nil
}
