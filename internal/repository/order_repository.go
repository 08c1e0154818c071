package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attraction-booking/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

const orderColumns = `
	order_id, order_ref, user_id, total_amount, discount_amount, coupon_discount, final_amount,
	payment_status, payment_mode, payment_ref, coupon_code, created_at, updated_at`

func orderDest(o *model.Order) []any {
	return []any{
		&o.ID, &o.Ref, &o.UserID, &o.TotalAmount, &o.DiscountAmount, &o.CouponDiscount, &o.FinalAmount,
		&o.PaymentStatus, &o.PaymentMode, &o.PaymentRef, &o.CouponCode, &o.CreatedAt, &o.UpdatedAt,
	}
}

const bookingColumns = `
	booking_id, order_id, user_id, item_type, attraction_id, combo_id, slot_id, combo_slot_id, offer_id,
	quantity, booking_date, total_amount, discount_amount, final_amount, payment_status, booking_status,
	slot_start_time::text, slot_end_time::text, slot_label, parent_booking_id,
	ticket_pdf, whatsapp_sent, email_sent, created_at`

func bookingDest(b *model.Booking) []any {
	return []any{
		&b.ID, &b.OrderID, &b.UserID, &b.ItemType, &b.AttractionID, &b.ComboID, &b.SlotID, &b.ComboSlotID, &b.OfferID,
		&b.Quantity, &b.BookingDate, &b.TotalAmount, &b.DiscountAmount, &b.FinalAmount, &b.PaymentStatus, &b.BookingStatus,
		&b.SlotStartTime, &b.SlotEndTime, &b.SlotLabel, &b.ParentBookingID,
		&b.TicketPDF, &b.WhatsappSent, &b.EmailSent, &b.CreatedAt,
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (order_ref, user_id, total_amount, discount_amount, coupon_discount, final_amount,
		                    payment_status, payment_mode, coupon_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING order_id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		order.Ref, order.UserID, order.TotalAmount, order.DiscountAmount, order.CouponDiscount, order.FinalAmount,
		order.PaymentStatus, order.PaymentMode, order.CouponCode,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("order_ref", order.Ref).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().Int64("order_id", order.ID).Str("order_ref", order.Ref).Msg("order created")
	return nil
}

// CreateBooking inserts one booking line within the provided transaction.
func (r *orderRepository) CreateBooking(ctx context.Context, tx pgx.Tx, b *model.Booking) error {
	query := `
		INSERT INTO bookings (
			order_id, user_id, item_type, attraction_id, combo_id, slot_id, combo_slot_id, offer_id,
			quantity, booking_date, total_amount, discount_amount, final_amount, payment_status, booking_status,
			slot_start_time, slot_end_time, slot_label, parent_booking_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16::time, $17::time, $18, $19)
		RETURNING booking_id, created_at
	`

	err := tx.QueryRow(ctx, query,
		b.OrderID, b.UserID, b.ItemType, b.AttractionID, b.ComboID, b.SlotID, b.ComboSlotID, b.OfferID,
		b.Quantity, b.BookingDate, b.TotalAmount, b.DiscountAmount, b.FinalAmount, b.PaymentStatus, b.BookingStatus,
		b.SlotStartTime, b.SlotEndTime, b.SlotLabel, b.ParentBookingID,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("order_id", b.OrderID).
			Str("item_type", string(b.ItemType)).
			Msg("failed to create booking")
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// CreateBookingAddons inserts add-on snapshots within the provided transaction.
func (r *orderRepository) CreateBookingAddons(ctx context.Context, tx pgx.Tx, addons []model.BookingAddon) error {
	if len(addons) == 0 {
		return nil
	}

	query := `
		INSERT INTO booking_addons (booking_id, addon_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	batch := &pgx.Batch{}
	for _, a := range addons {
		batch.Queue(query, a.BookingID, a.AddonID, a.Quantity, a.Price)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range addons {
		if err := results.QueryRow().Scan(&addons[i].ID); err != nil {
			r.logger.Error().
				Err(err).
				Int64("booking_id", addons[i].BookingID).
				Int64("addon_id", addons[i].AddonID).
				Msg("failed to create booking addon")
			return fmt.Errorf("failed to create booking addon: %w", err)
		}
	}

	r.logger.Debug().Int("count", len(addons)).Msg("booking addons created")
	return nil
}

// GetByID retrieves an order with its bookings in insertion order.
func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, []model.Booking, error) {
	var order model.Order
	err := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, id).Scan(orderDest(&order)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("order_id", id).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE order_id = $1 ORDER BY booking_id`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to query bookings")
		return nil, nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	index := make(map[int64]int)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(bookingDest(&b)...); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan booking row")
			return nil, nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		index[b.ID] = len(bookings)
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating booking rows")
		return nil, nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	if err := r.attachAddons(ctx, bookings, index); err != nil {
		return nil, nil, err
	}

	return &order, bookings, nil
}

func (r *orderRepository) attachAddons(ctx context.Context, bookings []model.Booking, index map[int64]int) error {
	if len(bookings) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, booking_id, addon_id, quantity, price
		FROM booking_addons
		WHERE booking_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query booking addons")
		return fmt.Errorf("failed to query booking addons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a model.BookingAddon
		if err := rows.Scan(&a.ID, &a.BookingID, &a.AddonID, &a.Quantity, &a.Price); err != nil {
			return fmt.Errorf("failed to scan booking addon: %w", err)
		}
		b := &bookings[index[a.BookingID]]
		b.Addons = append(b.Addons, a)
	}
	return rows.Err()
}

// GetForUpdate locks the order row until tx ends.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Order, error) {
	var order model.Order
	err := tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1 FOR UPDATE`, id).Scan(orderDest(&order)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return &order, nil
}

// UpdatePayment moves the order to a new payment state and cascades it to
// every booking, combo children included.
func (r *orderRepository) UpdatePayment(ctx context.Context, tx pgx.Tx, id int64, u model.PaymentUpdate) error {
	_, err := tx.Exec(ctx, `
		UPDATE orders
		SET payment_status = $2,
		    payment_mode = COALESCE($3, payment_mode),
		    payment_ref = COALESCE($4, payment_ref),
		    updated_at = NOW()
		WHERE order_id = $1
	`, id, u.Status, u.Mode, u.Reference)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", id).Str("status", string(u.Status)).Msg("failed to update order payment")
		return fmt.Errorf("failed to update order payment: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET payment_status = $2,
		    booking_status = COALESCE($3, booking_status)
		WHERE order_id = $1
	`, id, u.Status, u.BookingStatus)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to cascade payment to bookings")
		return fmt.Errorf("failed to update bookings: %w", err)
	}

	r.logger.Debug().
		Int64("order_id", id).
		Str("status", string(u.Status)).
		Int64("bookings", tag.RowsAffected()).
		Msg("order payment updated")
	return nil
}

// ListExpiredUnpaid returns the oldest Pending or Failed orders whose last
// payment change is before cutoff.
func (r *orderRepository) ListExpiredUnpaid(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT order_id
		FROM orders
		WHERE payment_status = ANY($1) AND updated_at < $2
		ORDER BY updated_at
		LIMIT $3
	`, []string{string(model.PaymentPending), string(model.PaymentFailed)}, cutoff, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query expired orders")
		return nil, fmt.Errorf("failed to query expired orders: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired orders: %w", err)
	}
	return ids, nil
}
