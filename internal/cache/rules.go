package cache

import (
	"context"
	"encoding/json"
	"time"

	"attraction-booking/internal/model"

	"github.com/rs/zerolog"
)

// RuleSource loads offer and dynamic pricing rules from the database.
type RuleSource interface {
	ApplicableRules(ctx context.Context, targetType model.TargetType) ([]model.ApplicableRule, error)
	DynamicRules(ctx context.Context, targetType model.TargetType) ([]model.DynamicPricingRule, error)
}

var targetTypes = []model.TargetType{model.TargetAttraction, model.TargetCombo}

func offerKey(t model.TargetType) string   { return "offers:rules:" + string(t) }
func dynamicKey(t model.TargetType) string { return "pricing:dynamic:" + string(t) }

// RuleCache serves rule sets from Store and falls back to the source on a
// miss or a cache error. A cache outage degrades to direct reads.
type RuleCache struct {
	source RuleSource
	store  Store
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRuleCache wraps source with a read-through cache.
func NewRuleCache(source RuleSource, store Store, ttl time.Duration, logger zerolog.Logger) *RuleCache {
	return &RuleCache{
		source: source,
		store:  store,
		ttl:    ttl,
		logger: logger.With().Str("component", "rule-cache").Logger(),
	}
}

func (c *RuleCache) ApplicableRules(ctx context.Context, targetType model.TargetType) ([]model.ApplicableRule, error) {
	return readThrough(ctx, c, offerKey(targetType), func() ([]model.ApplicableRule, error) {
		return c.source.ApplicableRules(ctx, targetType)
	})
}

func (c *RuleCache) DynamicRules(ctx context.Context, targetType model.TargetType) ([]model.DynamicPricingRule, error) {
	return readThrough(ctx, c, dynamicKey(targetType), func() ([]model.DynamicPricingRule, error) {
		return c.source.DynamicRules(ctx, targetType)
	})
}

// Invalidate drops every cached rule set. Offer writes call it after commit.
func (c *RuleCache) Invalidate(ctx context.Context) error {
	keys := make([]string, 0, 2*len(targetTypes))
	for _, t := range targetTypes {
		keys = append(keys, offerKey(t), dynamicKey(t))
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.logger.Error().Err(err).Msg("failed to invalidate rule cache")
		return err
	}
	c.logger.Debug().Strs("keys", keys).Msg("rule cache invalidated")
	return nil
}

func readThrough[T any](ctx context.Context, c *RuleCache, key string, load func() ([]T, error)) ([]T, error) {
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("rule cache read failed")
	}
	if found {
		var out []T
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding undecodable rule cache entry")
	}

	rules, err := load()
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(rules); err == nil {
		if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("rule cache write failed")
		}
	}
	return rules, nil
}
