package slot

import (
	"fmt"
	"time"
)

// Window is a half-open [Start, End) time-of-day range.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return time.Duration(w.End-w.Start) * time.Second
}

// Label renders the window for tickets and listings, e.g. "10:00 AM - 12:00 PM".
func (w Window) Label() string {
	return w.Start.Clock() + " - " + w.End.Clock()
}

// Split divides w into n contiguous segments of equal length. The last
// segment absorbs any remainder so the segments always cover w exactly.
func (w Window) Split(n int) []Window {
	if n <= 1 {
		return []Window{w}
	}

	seg := (w.End - w.Start) / TimeOfDay(n)
	out := make([]Window, n)
	start := w.Start
	for i := 0; i < n; i++ {
		end := start + seg
		if i == n-1 {
			end = w.End
		}
		out[i] = Window{Start: start, End: end}
		start = end
	}
	return out
}

// Schedule describes the daily window virtual slots are generated for.
type Schedule struct {
	OpenHour        int
	CloseHour       int
	VirtualCapacity int
}

// DefaultSchedule returns the 10:00-20:00 window with a nominal capacity of 300.
func DefaultSchedule() Schedule {
	return Schedule{
		OpenHour:        10,
		CloseHour:       20,
		VirtualCapacity: 300,
	}
}

// Generated is a computed slot with its window and nominal capacity.
type Generated struct {
	Ref      Ref
	Window   Window
	Capacity int
}

// Generate returns the virtual slots for a target on a date. Each slot lasts
// durationHours and must end by the closing hour.
func (s Schedule) Generate(targetID int64, date time.Time, durationHours int) []Generated {
	if durationHours < 1 {
		durationHours = 1
	}

	var out []Generated
	for h := s.OpenHour; h+durationHours <= s.CloseHour; h++ {
		out = append(out, Generated{
			Ref:      Virtual(targetID, date, h),
			Window:   Window{Start: At(h, 0), End: At(h+durationHours, 0)},
			Capacity: s.VirtualCapacity,
		})
	}
	return out
}

// Resolve computes the window and nominal capacity of a virtual ref.
func (s Schedule) Resolve(ref Ref, durationHours int) (Generated, error) {
	if !ref.IsVirtual() {
		return Generated{}, fmt.Errorf("slot %s is not virtual", ref)
	}
	if durationHours < 1 {
		durationHours = 1
	}
	if ref.Hour() < s.OpenHour || ref.Hour()+durationHours > s.CloseHour {
		return Generated{}, fmt.Errorf("slot %s is outside the %02d:00-%02d:00 window", ref, s.OpenHour, s.CloseHour)
	}

	return Generated{
		Ref:      ref,
		Window:   Window{Start: At(ref.Hour(), 0), End: At(ref.Hour()+durationHours, 0)},
		Capacity: s.VirtualCapacity,
	}, nil
}
