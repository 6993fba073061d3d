package booking

import (
	"sort"
	"time"

	"github.com/docpoint/clinic-booking/internal/clock"
)

// GenerateSlots computes the bookable slots for one calendar day from a
// snapshot of the doctor's windows, time off and active appointments. It is
// pure: no state survives between calls and re-running it on the same
// snapshot yields the same output.
//
// Each window's local clock times are converted to UTC for this specific
// date, so the DST offset in effect on that date is applied. The window is
// then walked in SlotLength steps; a slot is emitted only if the full step
// fits before window end and it overlaps no time-off range and no active
// appointment. Windows are walked independently: adjacent windows do not
// merge into one continuous stream, so slot boundaries always align to
// window starts.
func GenerateSlots(day clock.Day, loc *time.Location, windows []AvailabilityWindow, timeOff []TimeOff, busy []Appointment) []Slot {
	slots := []Slot{}

	for _, w := range windows {
		windowStart := day.At(w.StartTime.Hour, w.StartTime.Minute, loc)
		windowEnd := day.At(w.EndTime.Hour, w.EndTime.Minute, loc)

		for cursor := windowStart; cursor.Before(windowEnd); cursor = cursor.Add(SlotLength) {
			slotEnd := cursor.Add(SlotLength)
			if slotEnd.After(windowEnd) {
				break
			}

			if overlapsTimeOff(cursor, slotEnd, timeOff) || overlapsBusy(cursor, slotEnd, busy) {
				continue
			}

			slots = append(slots, Slot{Start: cursor, End: slotEnd})
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})

	return slots
}

func overlapsTimeOff(start, end time.Time, timeOff []TimeOff) bool {
	for _, t := range timeOff {
		if Overlaps(start, end, t.StartAt, t.EndAt) {
			return true
		}
	}
	return false
}

func overlapsBusy(start, end time.Time, busy []Appointment) bool {
	for _, a := range busy {
		if Overlaps(start, end, a.StartAt, a.EndAt) {
			return true
		}
	}
	return false
}

// windowContains reports whether a slot starting at the given local clock
// time fits entirely inside the window.
func windowContains(w AvailabilityWindow, slotStart TimeOfDay) bool {
	startMin := slotStart.Minutes()
	slotLenMin := int(SlotLength / time.Minute)
	return w.StartTime.Minutes() <= startMin && startMin+slotLenMin <= w.EndTime.Minutes()
}
