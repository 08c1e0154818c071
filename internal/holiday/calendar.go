package holiday

import (
	"context"
	"fmt"
	"sync"
	"time"

	"attraction-booking/internal/slot"

	"github.com/rs/zerolog"
)

// Calendar answers holiday lookups by year. It is read-only after
// construction and safe for concurrent use.
type Calendar struct {
	byYear map[int]Set
}

// Empty returns a calendar with no holidays.
func Empty() *Calendar {
	return &Calendar{byYear: map[int]Set{}}
}

// NewStaticCalendar builds a calendar from explicit dates.
func NewStaticCalendar(dates ...time.Time) *Calendar {
	c := Empty()
	for _, d := range dates {
		c.add(d)
	}
	return c
}

// LoadCalendar loads every file concurrently and merges the dates. A file
// that fails to load fails the whole calendar.
func LoadCalendar(ctx context.Context, filePaths []string, loader Loader, logger zerolog.Logger) (*Calendar, error) {
	logger = logger.With().Str("component", "holiday-calendar").Logger()

	type loadResult struct {
		index int
		set   Set
		err   error
	}

	resultChan := make(chan loadResult, len(filePaths))
	var wg sync.WaitGroup

	for i, path := range filePaths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()
			set, err := loader.Load(ctx, path)
			resultChan <- loadResult{index: index, set: set, err: err}
		}(i, path)
	}

	wg.Wait()
	close(resultChan)

	results := make([]loadResult, len(filePaths))
	for r := range resultChan {
		results[r.index] = r
	}

	c := Empty()
	for i, r := range results {
		if r.err != nil {
			logger.Error().Err(r.err).Str("file", filePaths[i]).Msg("failed to load holiday file")
			return nil, fmt.Errorf("failed to load holiday file %s: %w", filePaths[i], r.err)
		}
		for key := range r.set {
			d, err := slot.ParseDate(key)
			if err != nil {
				continue
			}
			c.add(d)
		}
	}

	logger.Info().
		Int("file_count", len(filePaths)).
		Int("years", len(c.byYear)).
		Msg("holiday calendar loaded")

	return c, nil
}

// GetHolidays returns the holidays of year. The returned set must not be
// modified.
func (c *Calendar) GetHolidays(year int) Set {
	if s, ok := c.byYear[year]; ok {
		return s
	}
	return Set{}
}

// IsHoliday reports whether date is a holiday.
func (c *Calendar) IsHoliday(date time.Time) bool {
	return c.GetHolidays(date.Year()).Contains(date)
}

func (c *Calendar) add(d time.Time) {
	s, ok := c.byYear[d.Year()]
	if !ok {
		s = NewSet(16)
		c.byYear[d.Year()] = s
	}
	s.Add(d)
}
