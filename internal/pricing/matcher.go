package pricing

import (
	"context"
	"fmt"
	"slices"
	"time"

	"attraction-booking/internal/holiday"
	"attraction-booking/internal/model"
	"attraction-booking/internal/slot"

	"github.com/rs/zerolog"
)

// Query identifies what is being priced: a target, the slot it is booked
// against (if any) and the moment of the visit.
type Query struct {
	TargetType model.TargetType
	TargetID   int64
	SlotType   *model.TargetType
	SlotID     string
	Date       time.Time
	Time       *slot.TimeOfDay
}

// RuleSource supplies the candidate rules for a target type. Implementations
// return every rule of active offers; date/time scoping is decided here.
type RuleSource interface {
	ApplicableRules(ctx context.Context, targetType model.TargetType) ([]model.ApplicableRule, error)
	DynamicRules(ctx context.Context, targetType model.TargetType) ([]model.DynamicPricingRule, error)
}

// HolidayCalendar reports the holiday dates of a year.
type HolidayCalendar interface {
	GetHolidays(year int) holiday.Set
}

// Matcher finds the single highest priority offer rule for a query.
type Matcher struct {
	rules    RuleSource
	holidays HolidayCalendar
	logger   zerolog.Logger
}

// NewMatcher creates a rule matcher.
func NewMatcher(rules RuleSource, holidays HolidayCalendar, logger zerolog.Logger) *Matcher {
	if holidays == nil {
		holidays = holiday.Empty()
	}
	return &Matcher{
		rules:    rules,
		holidays: holidays,
		logger:   logger.With().Str("component", "rule-matcher").Logger(),
	}
}

// FindApplicableRule returns the winning rule, or nil when nothing applies.
// No match is not an error.
func (m *Matcher) FindApplicableRule(ctx context.Context, q Query) (*model.ApplicableRule, error) {
	candidates, err := m.rules.ApplicableRules(ctx, q.TargetType)
	if err != nil {
		return nil, fmt.Errorf("failed to load offer rules: %w", err)
	}

	best := Match(candidates, q, m.holidays)
	if best != nil {
		m.logger.Debug().
			Int64("offer_id", best.Offer.ID).
			Int64("rule_id", best.Rule.ID).
			Int64("target_id", q.TargetID).
			Msg("offer rule matched")
	}
	return best, nil
}

// FindDynamicRule returns the winning dynamic pricing rule, or nil.
func (m *Matcher) FindDynamicRule(ctx context.Context, q Query) (*model.DynamicPricingRule, error) {
	candidates, err := m.rules.DynamicRules(ctx, q.TargetType)
	if err != nil {
		return nil, fmt.Errorf("failed to load dynamic pricing rules: %w", err)
	}
	return MatchDynamic(candidates, q, m.holidays), nil
}

// Match selects the applicable rule with the highest priority, breaking ties
// by the highest rule id. It does not modify candidates.
func Match(candidates []model.ApplicableRule, q Query, holidays HolidayCalendar) *model.ApplicableRule {
	var best *model.ApplicableRule
	for i := range candidates {
		c := &candidates[i]
		if !ruleApplies(c, q, holidays) {
			continue
		}
		if best == nil ||
			c.Rule.Priority > best.Rule.Priority ||
			(c.Rule.Priority == best.Rule.Priority && c.Rule.ID > best.Rule.ID) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// MatchDynamic selects the applicable dynamic rule with the highest priority,
// then the highest id.
func MatchDynamic(candidates []model.DynamicPricingRule, q Query, holidays HolidayCalendar) *model.DynamicPricingRule {
	var best *model.DynamicPricingRule
	for i := range candidates {
		r := &candidates[i]
		if !dynamicApplies(r, q, holidays) {
			continue
		}
		if best == nil || r.Priority > best.Priority || (r.Priority == best.Priority && r.ID > best.ID) {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

func ruleApplies(c *model.ApplicableRule, q Query, holidays HolidayCalendar) bool {
	offer, rule := &c.Offer, &c.Rule
	date := slot.DateOnly(q.Date)

	if !offer.Active {
		return false
	}
	if !withinDates(date, offer.ValidFrom, offer.ValidTo) {
		return false
	}

	if rule.TargetType != q.TargetType {
		return false
	}
	if !rule.AppliesToAll && (rule.TargetID == nil || *rule.TargetID != q.TargetID) {
		return false
	}

	if rule.SlotType != nil && (q.SlotType == nil || *rule.SlotType != *q.SlotType) {
		return false
	}
	if rule.SlotID != nil && *rule.SlotID != q.SlotID {
		return false
	}

	if !withinDates(date, rule.DateFrom, rule.DateTo) {
		return false
	}
	if !withinTimes(q.Time, rule.TimeFrom, rule.TimeTo) {
		return false
	}

	if rule.SpecificDate != nil && !slot.DateOnly(*rule.SpecificDate).Equal(date) {
		return false
	}
	if rule.SpecificTime != nil && (q.Time == nil || *q.Time != *rule.SpecificTime) {
		return false
	}

	return dayMatches(date, rule.DayType, rule.SpecificDays, holidays)
}

func dynamicApplies(r *model.DynamicPricingRule, q Query, holidays HolidayCalendar) bool {
	date := slot.DateOnly(q.Date)

	if !r.Active || r.TargetType != q.TargetType {
		return false
	}
	if r.TargetID != nil && *r.TargetID != q.TargetID {
		return false
	}
	if !withinDates(date, r.DateFrom, r.DateTo) {
		return false
	}
	if !withinTimes(q.Time, r.TimeFrom, r.TimeTo) {
		return false
	}
	return dayMatches(date, r.DayType, r.SpecificDays, holidays)
}

func withinDates(date time.Time, from, to *time.Time) bool {
	if from != nil && date.Before(slot.DateOnly(*from)) {
		return false
	}
	if to != nil && date.After(slot.DateOnly(*to)) {
		return false
	}
	return true
}

// withinTimes applies inclusive bounds. A bounded rule never matches a line
// with no known time.
func withinTimes(t *slot.TimeOfDay, from, to *slot.TimeOfDay) bool {
	if from == nil && to == nil {
		return true
	}
	if t == nil {
		return false
	}
	if from != nil && *t < *from {
		return false
	}
	if to != nil && *t > *to {
		return false
	}
	return true
}

func dayMatches(date time.Time, dayType *model.DayType, specificDays []int, holidays HolidayCalendar) bool {
	weekday := int(date.Weekday())

	if dayType != nil {
		switch *dayType {
		case model.DayWeekday:
			if weekday == int(time.Saturday) || weekday == int(time.Sunday) {
				return false
			}
		case model.DayWeekend:
			if weekday != int(time.Saturday) && weekday != int(time.Sunday) {
				return false
			}
		case model.DayCustom:
			if !slices.Contains(specificDays, weekday) {
				return false
			}
		case model.DayHoliday:
			if !holidays.GetHolidays(date.Year()).Contains(date) {
				return false
			}
		}
	}

	if len(specificDays) > 0 && !slices.Contains(specificDays, weekday) {
		return false
	}
	return true
}
