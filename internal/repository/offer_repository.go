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

// offerRepository implements OfferRepository using PostgreSQL.
type offerRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOfferRepository creates a new PostgreSQL-backed offer repository.
func NewOfferRepository(pool *pgxpool.Pool, logger zerolog.Logger) OfferRepository {
	return &offerRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "offer").Logger(),
	}
}

const offerColumns = `
	o.id, o.title, o.rule_type, o.discount_type, o.discount_value, o.max_discount,
	o.valid_from, o.valid_to, o.active, o.created_at, o.updated_at`

const ruleColumns = `
	r.rule_id, r.offer_id, r.target_type, r.target_id, r.applies_to_all,
	r.date_from, r.date_to, r.time_from::text, r.time_to::text, r.slot_type, r.slot_id,
	r.day_type, r.specific_days, r.specific_date, r.specific_time::text,
	r.rule_discount_type, r.rule_discount_value, r.priority,
	r.buy_qty, r.get_qty, r.get_target_type, r.get_target_id, r.get_discount_type, r.get_discount_value`

func offerDest(o *model.Offer) []any {
	return []any{
		&o.ID, &o.Title, &o.RuleType, &o.DiscountType, &o.DiscountValue, &o.MaxDiscount,
		&o.ValidFrom, &o.ValidTo, &o.Active, &o.CreatedAt, &o.UpdatedAt,
	}
}

// ruleTimes receives the ::text TIME columns of a rule row.
type ruleTimes struct {
	from, to, specific *string
}

func ruleDest(r *model.OfferRule, t *ruleTimes) []any {
	return []any{
		&r.ID, &r.OfferID, &r.TargetType, &r.TargetID, &r.AppliesToAll,
		&r.DateFrom, &r.DateTo, &t.from, &t.to, &r.SlotType, &r.SlotID,
		&r.DayType, &r.SpecificDays, &r.SpecificDate, &t.specific,
		&r.RuleDiscountType, &r.RuleDiscountValue, &r.Priority,
		&r.BuyQty, &r.GetQty, &r.GetTargetType, &r.GetTargetID, &r.GetDiscountType, &r.GetDiscountValue,
	}
}

func (t ruleTimes) apply(r *model.OfferRule) error {
	var err error
	if r.TimeFrom, err = parseTimeOfDay(t.from); err != nil {
		return err
	}
	if r.TimeTo, err = parseTimeOfDay(t.to); err != nil {
		return err
	}
	r.SpecificTime, err = parseTimeOfDay(t.specific)
	return err
}

func (r *offerRepository) ApplicableRules(ctx context.Context, targetType model.TargetType) ([]model.ApplicableRule, error) {
	query := `SELECT ` + offerColumns + `,` + ruleColumns + `
		FROM offer_rules r
		JOIN offers o ON o.id = r.offer_id
		WHERE o.active AND r.target_type = $1
		ORDER BY r.priority DESC, r.rule_id DESC
	`

	rows, err := r.pool.Query(ctx, query, targetType)
	if err != nil {
		r.logger.Error().Err(err).Str("target_type", string(targetType)).Msg("failed to query offer rules")
		return nil, fmt.Errorf("failed to query offer rules: %w", err)
	}
	defer rows.Close()

	var out []model.ApplicableRule
	for rows.Next() {
		var (
			ar    model.ApplicableRule
			times ruleTimes
		)
		dest := append(offerDest(&ar.Offer), ruleDest(&ar.Rule, &times)...)
		if err := rows.Scan(dest...); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan offer rule row")
			return nil, fmt.Errorf("failed to scan offer rule: %w", err)
		}
		if err := times.apply(&ar.Rule); err != nil {
			return nil, err
		}
		out = append(out, ar)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating offer rule rows")
		return nil, fmt.Errorf("error iterating offer rules: %w", err)
	}

	return out, nil
}

func (r *offerRepository) DynamicRules(ctx context.Context, targetType model.TargetType) ([]model.DynamicPricingRule, error) {
	query := `
		SELECT id, name, target_type, target_id, date_from, date_to, time_from::text, time_to::text,
		       day_type, specific_days, price_adjustment_type, price_adjustment_value, priority, active
		FROM dynamic_pricing_rules
		WHERE active AND target_type = $1
		ORDER BY priority DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, targetType)
	if err != nil {
		r.logger.Error().Err(err).Str("target_type", string(targetType)).Msg("failed to query dynamic pricing rules")
		return nil, fmt.Errorf("failed to query dynamic pricing rules: %w", err)
	}
	defer rows.Close()

	var out []model.DynamicPricingRule
	for rows.Next() {
		var (
			d        model.DynamicPricingRule
			from, to *string
		)
		err := rows.Scan(&d.ID, &d.Name, &d.TargetType, &d.TargetID, &d.DateFrom, &d.DateTo, &from, &to,
			&d.DayType, &d.SpecificDays, &d.AdjustmentType, &d.AdjustmentValue, &d.Priority, &d.Active)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan dynamic pricing rule")
			return nil, fmt.Errorf("failed to scan dynamic pricing rule: %w", err)
		}
		if d.TimeFrom, err = parseTimeOfDay(from); err != nil {
			return nil, err
		}
		if d.TimeTo, err = parseTimeOfDay(to); err != nil {
			return nil, err
		}
		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dynamic pricing rules: %w", err)
	}
	return out, nil
}

func (r *offerRepository) Create(ctx context.Context, offer *model.Offer) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	err = tx.QueryRow(ctx, `
		INSERT INTO offers (title, rule_type, discount_type, discount_value, max_discount, valid_from, valid_to, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, offer.Title, offer.RuleType, offer.DiscountType, offer.DiscountValue, offer.MaxDiscount,
		offer.ValidFrom, offer.ValidTo, offer.Active,
	).Scan(&offer.ID, &offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("title", offer.Title).Msg("failed to create offer")
		return fmt.Errorf("failed to create offer: %w", err)
	}

	query := `
		INSERT INTO offer_rules (
			offer_id, target_type, target_id, applies_to_all, date_from, date_to, time_from, time_to,
			slot_type, slot_id, day_type, specific_days, specific_date, specific_time,
			rule_discount_type, rule_discount_value, priority,
			buy_qty, get_qty, get_target_type, get_target_id, get_discount_type, get_discount_value
		) VALUES ($1, $2, $3, $4, $5, $6, $7::time, $8::time, $9, $10, $11, $12, $13, $14::time,
			$15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING rule_id
	`

	batch := &pgx.Batch{}
	for i := range offer.Rules {
		rule := &offer.Rules[i]
		rule.OfferID = offer.ID
		batch.Queue(query,
			rule.OfferID, rule.TargetType, rule.TargetID, rule.AppliesToAll, rule.DateFrom, rule.DateTo,
			timeArg(rule.TimeFrom), timeArg(rule.TimeTo), rule.SlotType, rule.SlotID, rule.DayType,
			rule.SpecificDays, rule.SpecificDate, timeArg(rule.SpecificTime),
			rule.RuleDiscountType, rule.RuleDiscountValue, rule.Priority,
			rule.BuyQty, rule.GetQty, rule.GetTargetType, rule.GetTargetID, rule.GetDiscountType, rule.GetDiscountValue,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range offer.Rules {
		if err = results.QueryRow().Scan(&offer.Rules[i].ID); err != nil {
			_ = results.Close()
			r.logger.Error().Err(err).Int64("offer_id", offer.ID).Int("rule_index", i).Msg("failed to create offer rule")
			return fmt.Errorf("failed to create offer rule: %w", err)
		}
	}
	if err = results.Close(); err != nil {
		return fmt.Errorf("failed to create offer rules: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit offer: %w", err)
	}

	r.logger.Info().Int64("offer_id", offer.ID).Int("rules", len(offer.Rules)).Msg("offer created")
	return nil
}

func (r *offerRepository) GetByID(ctx context.Context, id int64) (*model.Offer, error) {
	var o model.Offer
	err := r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers o WHERE o.id = $1`, id).Scan(offerDest(&o)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("offer_id", id).Msg("failed to query offer")
		return nil, fmt.Errorf("failed to query offer: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+ruleColumns+` FROM offer_rules r WHERE r.offer_id = $1 ORDER BY r.rule_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query offer rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rule  model.OfferRule
			times ruleTimes
		)
		if err := rows.Scan(ruleDest(&rule, &times)...); err != nil {
			return nil, fmt.Errorf("failed to scan offer rule: %w", err)
		}
		if err := times.apply(&rule); err != nil {
			return nil, err
		}
		o.Rules = append(o.Rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offer rules: %w", err)
	}

	return &o, nil
}

func (r *offerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("offer_id", id).Msg("failed to delete offer")
		return false, fmt.Errorf("failed to delete offer: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
