package booking

import (
	"math"
	"time"
)

// DefaultHorizonDays is how far ahead a booking may be made.
const DefaultHorizonDays = 7

// IsDayEnabled reports whether day may be selected for booking: it must lie
// within [today, today+horizonDays] and fall on one of the provider's
// enabled weekdays (0 = Sunday). Past days are never enabled. An empty
// weekday set disables every day; that is a valid state, not an error.
//
// today is injected by the caller so the gate stays deterministic.
func IsDayEnabled(day time.Time, weekdays []int, today time.Time, horizonDays int) bool {
	diff := daysBetween(today, day)
	if diff < 0 || diff > horizonDays {
		return false
	}
	wd := int(day.Weekday())
	for _, w := range weekdays {
		if w == wd {
			return true
		}
	}
	return false
}

// SelectableDates enumerates the enabled calendar days within the horizon,
// in ascending order. Drives the date menu.
func SelectableDates(today time.Time, weekdays []int, horizonDays int) []time.Time {
	var days []time.Time
	start := midnight(today)
	for d := 0; d <= horizonDays; d++ {
		day := start.AddDate(0, 0, d)
		if IsDayEnabled(day, weekdays, today, horizonDays) {
			days = append(days, day)
		}
	}
	return days
}

// daysBetween counts whole calendar days from "from" to "to"; same day is 0,
// negative when "to" is in the past. Rounding absorbs DST-shortened days.
func daysBetween(from, to time.Time) int {
	d := midnight(to).Sub(midnight(from))
	return int(math.Round(d.Hours() / 24))
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
