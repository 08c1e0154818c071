package holiday

import (
	"context"
	"time"

	"attraction-booking/internal/slot"
)

// Set holds holiday dates as "YYYY-MM-DD" keys.
type Set map[string]struct{}

// NewSet creates a set with the given capacity.
func NewSet(capacity int) Set {
	return make(Set, capacity)
}

// Contains reports whether date is a holiday. The time of day is ignored.
func (s Set) Contains(date time.Time) bool {
	_, ok := s[date.Format(slot.DateLayout)]
	return ok
}

// Add records a holiday.
func (s Set) Add(date time.Time) {
	s[date.Format(slot.DateLayout)] = struct{}{}
}

// Size returns the number of dates in the set.
func (s Set) Size() int {
	return len(s)
}

// Loader defines the interface for loading holiday files.
type Loader interface {
	// Load reads a gzipped holiday file and returns its dates.
	Load(ctx context.Context, filePath string) (Set, error)
}
