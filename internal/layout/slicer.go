package layout

import (
	"time"

	"calgrid/internal/model"
	"calgrid/internal/timecalc"
)

// WeekSlice is the part of an event range that falls inside one week row,
// with its horizontal geometry in percent of the row.
type WeekSlice struct {
	Start    time.Time      // clamped start
	End      time.Time      // clamped end
	Type     model.SlotType // relation to the week boundaries
	DayStart int
	DayEnd   int
	SpanDays int
	Left     float64
	Width    float64
}

// DetermineSlotType classifies an event range against a week range.
// "Extends past" is exclusive: an event ending exactly at the week's last
// instant does not continue.
func DetermineSlotType(ev model.TimeInterval, week model.DateRange) model.SlotType {
	startsBefore := ev.Start.Before(week.Start)
	endsAfter := ev.End.After(week.End)

	switch {
	case startsBefore && endsAfter:
		return model.SlotMiddle
	case startsBefore:
		return model.SlotLast
	case endsAfter:
		return model.SlotFirst
	default:
		return model.SlotFull
	}
}

// Slice clamps ev to a seven-day week and computes its geometry.
func Slice(ev model.TimeInterval, week model.DateRange) WeekSlice {
	return SliceColumns(ev, week, timecalc.DaysPerWeek)
}

// SliceColumns is Slice for a row of arbitrary day columns (1 for a day view).
// Ranges that do not intersect the row collapse onto its nearest edge.
func SliceColumns(ev model.TimeInterval, week model.DateRange, columns int) WeekSlice {
	if columns < 1 {
		columns = 1
	}

	start := ev.Start
	if start.Before(week.Start) {
		start = week.Start
	}
	end := ev.End
	if end.After(week.End) {
		end = week.End
	}
	if end.Before(start) {
		end = start
	}

	first := dayIndex(week.Start, start, columns)
	last := dayIndex(week.Start, end, columns)
	span := last - first + 1

	return WeekSlice{
		Start:    start,
		End:      end,
		Type:     DetermineSlotType(ev, week),
		DayStart: first,
		DayEnd:   last,
		SpanDays: span,
		Left:     float64(first) / float64(columns) * 100,
		Width:    float64(span) / float64(columns) * 100,
	}
}

func dayIndex(weekStart, t time.Time, columns int) int {
	i := timecalc.DaysBetween(weekStart, timecalc.StartOfDay(t))
	if i < 0 {
		return 0
	}
	if i >= columns {
		return columns - 1
	}
	return i
}
