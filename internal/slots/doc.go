// Package slots derives bookable time slots from calendar busy intervals.
//
// The calculation is a pure function: given a time window, a set of busy
// intervals and a slot duration, ComputeFreeSlots returns the start times of
// every slot in the window that no busy interval overlaps.
//
// A slot [s, s+d) is blocked by a busy interval [b0, b1) when b0 < s+d and
// b1 > s. Touching boundaries do not block, so a meeting that ends at 09:30
// leaves the 09:30 slot free.
//
// Example usage:
//
//	window, err := slots.NewWindow(start, end)
//	if err != nil {
//	    return err
//	}
//	free, err := slots.ComputeFreeSlots(window, busy, slots.DefaultSlotDuration)
package slots
