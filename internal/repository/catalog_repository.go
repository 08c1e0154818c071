package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"attraction-booking/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// catalogRepository implements CatalogRepository using PostgreSQL.
type catalogRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCatalogRepository creates a new PostgreSQL-backed catalog repository.
func NewCatalogRepository(pool *pgxpool.Pool, logger zerolog.Logger) CatalogRepository {
	return &catalogRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "catalog").Logger(),
	}
}

func (r *catalogRepository) GetAttraction(ctx context.Context, id int64) (*model.Attraction, error) {
	query := `
		SELECT id, name, base_price, active, created_at
		FROM attractions
		WHERE id = $1
	`

	var a model.Attraction
	err := r.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.Name, &a.BasePrice, &a.Active, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("attraction_id", id).Msg("attraction not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("attraction_id", id).Msg("failed to query attraction")
		return nil, fmt.Errorf("failed to query attraction: %w", err)
	}

	return &a, nil
}

func (r *catalogRepository) GetCombo(ctx context.Context, id int64) (*model.Combo, error) {
	query := `
		SELECT id, name, attraction_ids, attraction_prices, total_price, active, created_at
		FROM combos
		WHERE id = $1
	`

	var (
		c      model.Combo
		prices []byte
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.AttractionIDs, &prices, &c.TotalPrice, &c.Active, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("combo_id", id).Msg("combo not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("combo_id", id).Msg("failed to query combo")
		return nil, fmt.Errorf("failed to query combo: %w", err)
	}

	if len(prices) > 0 {
		if err := json.Unmarshal(prices, &c.AttractionPrices); err != nil {
			r.logger.Error().Err(err).Int64("combo_id", id).Msg("malformed attraction_prices")
			return nil, fmt.Errorf("failed to decode combo attraction prices: %w", err)
		}
	}

	return &c, nil
}

func (r *catalogRepository) GetAddon(ctx context.Context, id int64) (*model.Addon, error) {
	query := `
		SELECT id, name, price, discount_percent, active
		FROM addons
		WHERE id = $1
	`

	var a model.Addon
	err := r.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.Name, &a.Price, &a.DiscountPercent, &a.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("addon_id", id).Msg("addon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("addon_id", id).Msg("failed to query addon")
		return nil, fmt.Errorf("failed to query addon: %w", err)
	}

	return &a, nil
}

func (r *catalogRepository) GetSlot(ctx context.Context, targetType model.TargetType, id int64) (*model.Slot, error) {
	query, err := slotQuery(targetType, "WHERE id = $1")
	if err != nil {
		return nil, err
	}

	s, err := scanSlot(r.pool.QueryRow(ctx, query, id), targetType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("slot_id", id).Str("target_type", string(targetType)).Msg("slot not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("slot_id", id).Msg("failed to query slot")
		return nil, fmt.Errorf("failed to query slot: %w", err)
	}

	return s, nil
}

func (r *catalogRepository) ListSlots(ctx context.Context, targetType model.TargetType, targetID int64, date time.Time) ([]model.Slot, error) {
	query, err := slotQuery(targetType, "WHERE "+slotOwnerColumn(targetType)+" = $1 AND slot_date = $2 ORDER BY start_time, id")
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, targetID, date)
	if err != nil {
		r.logger.Error().Err(err).Int64("target_id", targetID).Msg("failed to query slots")
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	var slots []model.Slot
	for rows.Next() {
		s, err := scanSlot(rows, targetType)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan slot row")
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, *s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating slot rows")
		return nil, fmt.Errorf("error iterating slots: %w", err)
	}

	return slots, nil
}

func slotTable(targetType model.TargetType) (string, error) {
	switch targetType {
	case model.TargetAttraction:
		return "attraction_slots", nil
	case model.TargetCombo:
		return "combo_slots", nil
	default:
		return "", fmt.Errorf("unknown slot target type %q", targetType)
	}
}

func slotOwnerColumn(targetType model.TargetType) string {
	if targetType == model.TargetCombo {
		return "combo_id"
	}
	return "attraction_id"
}

func slotQuery(targetType model.TargetType, where string) (string, error) {
	table, err := slotTable(targetType)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`
		SELECT id, %s, slot_date, start_time::text, end_time::text, capacity, price, available
		FROM %s
		%s
	`, slotOwnerColumn(targetType), table, where), nil
}

func scanSlot(row pgx.Row, targetType model.TargetType) (*model.Slot, error) {
	var (
		s          model.Slot
		start, end string
	)
	if err := row.Scan(&s.ID, &s.TargetID, &s.Date, &start, &end, &s.Capacity, &s.Price, &s.Available); err != nil {
		return nil, err
	}

	w, err := parseWindow(start, end)
	if err != nil {
		return nil, err
	}
	s.Window = w
	s.TargetType = targetType
	return &s, nil
}
