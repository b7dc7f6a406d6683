package layout

import (
	"slices"
	"time"

	"calgrid/internal/model"
	"calgrid/internal/normalize"
	"calgrid/internal/timecalc"
)

// Span is a half-open [Start, End) interval competing for a row.
type Span struct {
	Start time.Time
	End   time.Time
}

// AssignRows places spans on continuous rows, in the order given. Each row
// remembers the ends of the spans already on it; a row is taken by the first
// span none of whose ends lies after the new start. Touching spans share a
// row. Callers pass spans ordered by start.
func AssignRows(spans []Span) []int {
	var rows [][]time.Time
	out := make([]int, len(spans))

	for i, s := range spans {
		row := 0
		for ; row < len(rows); row++ {
			if rowFree(rows[row], s.Start) {
				break
			}
		}
		if row == len(rows) {
			rows = append(rows, nil)
		}
		rows[row] = append(rows[row], s.End)
		out[i] = row
	}
	return out
}

func rowFree(ends []time.Time, start time.Time) bool {
	for _, end := range ends {
		if end.After(start) {
			return false
		}
	}
	return true
}

// AssignLaneRows assigns continuous rows to events competing for a week's
// all-day lane. Events are ordered by clamped start, longer first on ties,
// then input order. The returned assignments follow that order.
func AssignLaneRows(events []model.Event, week model.DateRange, columns int) []model.SlotAssignment {
	type candidate struct {
		ev    model.Event
		slice WeekSlice
	}

	cands := make([]candidate, 0, len(events))
	for _, ev := range events {
		r := normalize.Normalize(ev)
		if !week.Overlaps(r.Start, r.End) {
			continue
		}
		cands = append(cands, candidate{ev: ev, slice: SliceColumns(r, week, columns)})
	}

	slices.SortStableFunc(cands, func(a, b candidate) int {
		if a.slice.DayStart != b.slice.DayStart {
			return a.slice.DayStart - b.slice.DayStart
		}
		return b.slice.SpanDays - a.slice.SpanDays
	})

	spans := make([]Span, len(cands))
	for i, c := range cands {
		spans[i] = Span{
			Start: timecalc.StartOfDay(c.slice.Start),
			End:   timecalc.StartOfDay(c.slice.End).AddDate(0, 0, 1),
		}
	}
	rows := AssignRows(spans)

	out := make([]model.SlotAssignment, len(cands))
	for i, c := range cands {
		out[i] = model.SlotAssignment{
			Event:    c.ev,
			RowIndex: rows[i],
			DayStart: c.slice.DayStart,
			DayEnd:   c.slice.DayEnd,
			SpanDays: c.slice.SpanDays,
		}
	}
	return out
}
