package service

import (
	"context"
	"fmt"
	"sort"

	"attraction-booking/internal/model"
	"attraction-booking/internal/pricing"
	"attraction-booking/internal/repository"
	"attraction-booking/internal/slot"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// CapacityGuard keeps slot-bound bookings within slot capacity.
type CapacityGuard struct {
	slots  repository.SlotRepository
	logger zerolog.Logger
}

// NewCapacityGuard creates a capacity guard.
func NewCapacityGuard(slots repository.SlotRepository, logger zerolog.Logger) *CapacityGuard {
	return &CapacityGuard{
		slots:  slots,
		logger: logger.With().Str("component", "capacity-guard").Logger(),
	}
}

type slotKey struct {
	target model.TargetType
	id     int64
}

// LockAll locks every stored slot the lines reference, in a fixed order so
// that concurrent carts over the same slots cannot deadlock.
func (g *CapacityGuard) LockAll(ctx context.Context, tx pgx.Tx, lines []pricing.Line) error {
	seen := make(map[slotKey]bool)
	keys := make([]slotKey, 0, len(lines))
	for i := range lines {
		if !lines[i].Slot.IsPhysical() {
			continue
		}
		k := slotKey{target: lines[i].Type.Target(), id: lines[i].Slot.ID()}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].target != keys[j].target {
			return keys[i].target < keys[j].target
		}
		return keys[i].id < keys[j].id
	})

	for _, k := range keys {
		s, err := g.slots.LockForUpdate(ctx, tx, k.target, k.id)
		if err != nil {
			return fmt.Errorf("failed to lock slot: %w", err)
		}
		if s == nil {
			return model.NotFound(model.ErrCodeSlotNotFound, "slot %d not found", k.id)
		}
	}
	return nil
}

// LockAndCheck locks a stored slot and verifies that requested more places
// fit. It returns the slot and the quantity booked before this request.
func (g *CapacityGuard) LockAndCheck(ctx context.Context, tx pgx.Tx, target model.TargetType, id int64, requested int) (*model.Slot, int, error) {
	s, err := g.slots.LockForUpdate(ctx, tx, target, id)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to lock slot: %w", err)
	}
	if s == nil {
		return nil, 0, model.NotFound(model.ErrCodeSlotNotFound, "slot %d not found", id)
	}

	booked, err := g.slots.BookedQuantity(ctx, tx, target, id)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count booked quantity: %w", err)
	}

	if booked+requested > s.Capacity {
		g.logger.Warn().
			Int64("slot_id", id).
			Str("target_type", string(target)).
			Int("capacity", s.Capacity).
			Int("booked", booked).
			Int("requested", requested).
			Msg("slot capacity exceeded")
		return nil, 0, model.CapacityConflict(id, s.Capacity, booked, requested)
	}
	return s, booked, nil
}

// Check enforces capacity for one priced line inside tx. Stored slots are
// checked against live bookings; virtual slots only against their nominal
// capacity; unslotted lines pass.
func (g *CapacityGuard) Check(ctx context.Context, tx pgx.Tx, line *pricing.Line) error {
	switch line.Slot.Kind() {
	case slot.KindPhysical:
		_, _, err := g.LockAndCheck(ctx, tx, line.Type.Target(), line.Slot.ID(), line.Quantity)
		return err
	case slot.KindVirtual:
		if line.Quantity > line.Capacity {
			return model.NewDomainError(model.KindCapacityConflict, model.ErrCodeSlotFull,
				fmt.Sprintf("slot %s holds at most %d, %d requested", line.Slot, line.Capacity, line.Quantity))
		}
	}
	return nil
}
