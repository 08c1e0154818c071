package slot

// OpenSlotLabel is shown for bookings that are not bound to a time window.
const OpenSlotLabel = "Open Slot"

// Display is the presentation form of a booking's slot.
type Display struct {
	Start *TimeOfDay
	End   *TimeOfDay
	Label string
}

// ResolveDisplay picks the first non-nil window among candidates, in the
// caller's priority order, and renders it. With no candidate the booking is
// shown as an open slot.
//
// Order creation passes (physical slot row, virtual slot); read paths pass
// (stored booking window, joined slot row).
func ResolveDisplay(candidates ...*Window) Display {
	for _, w := range candidates {
		if w == nil {
			continue
		}
		start, end := w.Start, w.End
		return Display{Start: &start, End: &end, Label: w.Label()}
	}
	return Display{Label: OpenSlotLabel}
}
