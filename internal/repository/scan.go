package repository

import (
	"fmt"

	"attraction-booking/internal/slot"
)

// TIME columns are selected as ::text and parsed here; pgx has no native
// mapping for a seconds-since-midnight type.

func parseTimeOfDay(s *string) (*slot.TimeOfDay, error) {
	if s == nil {
		return nil, nil
	}
	t, err := slot.ParseTimeOfDay(*s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse time column: %w", err)
	}
	return &t, nil
}

func parseWindow(start, end string) (slot.Window, error) {
	s, err := slot.ParseTimeOfDay(start)
	if err != nil {
		return slot.Window{}, fmt.Errorf("failed to parse slot start: %w", err)
	}
	e, err := slot.ParseTimeOfDay(end)
	if err != nil {
		return slot.Window{}, fmt.Errorf("failed to parse slot end: %w", err)
	}
	return slot.Window{Start: s, End: e}, nil
}

// timeArg converts an optional time of day into a query argument.
func timeArg(t *slot.TimeOfDay) any {
	if t == nil {
		return nil
	}
	return t.String()
}
