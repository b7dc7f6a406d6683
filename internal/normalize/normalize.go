// Package normalize reduces every event variant to the day-granular range
// the grid layouts work with.
package normalize

import (
	"time"

	"calgrid/internal/model"
	"calgrid/internal/timecalc"
)

// Normalize returns the day-granular range an event covers.
//
// Timed and recurring events are widened to whole days: the start is floored
// to 00:00 and the end is ceiled to the last instant of its day (an end at
// exactly midnight closes the previous day). All-day events cover Date through
// EndDate inclusive. A range whose end precedes its start collapses onto the
// start day.
func Normalize(ev model.Event) model.TimeInterval {
	var start, end time.Time

	switch ev.Kind {
	case model.KindAllDay:
		start = timecalc.StartOfDay(ev.Date)
		end = timecalc.EndOfDay(ev.LastDate())
	default:
		s, e := Clock(ev)
		start = timecalc.StartOfDay(s)
		if e.Equal(s) {
			end = timecalc.EndOfDay(s)
		} else {
			end = timecalc.CeilDay(e)
		}
	}

	if end.Before(start) {
		end = timecalc.EndOfDay(start)
	}
	return model.TimeInterval{Start: start, End: end}
}

// Clock returns the event's clock-time range, used by the week and day views.
// All-day events span from 00:00 of Date to 00:00 after EndDate. Degenerate
// ranges are clamped to zero duration at the start.
func Clock(ev model.Event) (time.Time, time.Time) {
	if ev.Kind == model.KindAllDay {
		start := timecalc.StartOfDay(ev.Date)
		end := timecalc.StartOfDay(ev.LastDate()).AddDate(0, 0, 1)
		if !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
		return start, end
	}
	if ev.End.Before(ev.Start) {
		return ev.Start, ev.Start
	}
	return ev.Start, ev.End
}

// SpanDays is the number of calendar days the normalized range touches.
func SpanDays(r model.TimeInterval) int {
	return timecalc.DaysBetween(r.Start, r.End) + 1
}

// IsMultiDay reports whether an event belongs in an all-day lane rather than
// a timed column: all-day events and timed events crossing midnight.
func IsMultiDay(ev model.Event) bool {
	if ev.Kind == model.KindAllDay {
		return true
	}
	return SpanDays(Normalize(ev)) > 1
}
