package availability

import (
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
)

// SlotMinutes is the booking granularity.
const SlotMinutes = 30

// GenerateSlots lists the 30-minute slot labels of date's working interval.
func GenerateSlots(hours model.WorkingHours, date time.Time) []string {
	return GenerateSlotsEvery(hours, date, SlotMinutes)
}

// GenerateSlotsEvery lists "HH:MM" labels starting exactly at the interval
// start and stepping by stepMinutes while the start is still before the end.
// A last slot may run past the end. Closed days, empty or inverted intervals
// and malformed clocks all yield an empty list.
func GenerateSlotsEvery(hours model.WorkingHours, date time.Time, stepMinutes int) []string {
	slots := []string{}
	if stepMinutes <= 0 {
		return slots
	}

	iv := hours.For(date)
	if iv == nil {
		return slots
	}
	start, err := model.ParseClock(iv.Start)
	if err != nil {
		return slots
	}
	end, err := model.ParseClock(iv.End)
	if err != nil {
		return slots
	}

	for m := start; m < end; m += stepMinutes {
		slots = append(slots, model.FormatClock(m))
	}
	return slots
}

// IsSlot reports whether label is one of the generated slots of date.
func IsSlot(hours model.WorkingHours, date time.Time, label string) bool {
	for _, s := range GenerateSlots(hours, date) {
		if s == label {
			return true
		}
	}
	return false
}
