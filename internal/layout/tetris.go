package layout

import (
	"slices"
	"time"

	"calgrid/internal/model"
	"calgrid/internal/normalize"
	"calgrid/internal/timecalc"
)

// AssignSlots places the events overlapping week on vertical slots shared by
// the whole week row (month view).
//
// Events are taken longest first (total day span, not the clamped span),
// earlier start first on ties, input order otherwise. Each one gets the lowest
// slot whose days [DayStart, DayEnd] are all still free. The occupancy grid
// grows as needed; limiting what is shown is Partition's job.
func AssignSlots(events []model.Event, week model.DateRange) []model.SlotAssignment {
	type candidate struct {
		ev        model.Event
		rng       model.TimeInterval
		start     time.Time // unfloored, for the tie-break
		totalSpan int
	}

	cands := make([]candidate, 0, len(events))
	for _, ev := range events {
		r := normalize.Normalize(ev)
		if !week.Overlaps(r.Start, r.End) {
			continue
		}
		start, _ := normalize.Clock(ev)
		cands = append(cands, candidate{ev: ev, rng: r, start: start, totalSpan: normalize.SpanDays(r)})
	}

	slices.SortStableFunc(cands, func(a, b candidate) int {
		if a.totalSpan != b.totalSpan {
			return b.totalSpan - a.totalSpan
		}
		return a.start.Compare(b.start)
	})

	var occupancy [][timecalc.DaysPerWeek]bool
	out := make([]model.SlotAssignment, 0, len(cands))

	for _, c := range cands {
		s := Slice(c.rng, week)

		slot := 0
		for ; slot < len(occupancy); slot++ {
			if daysFree(occupancy[slot], s.DayStart, s.DayEnd) {
				break
			}
		}
		if slot == len(occupancy) {
			occupancy = append(occupancy, [timecalc.DaysPerWeek]bool{})
		}
		for d := s.DayStart; d <= s.DayEnd; d++ {
			occupancy[slot][d] = true
		}

		out = append(out, model.SlotAssignment{
			Event:    c.ev,
			RowIndex: slot,
			DayStart: s.DayStart,
			DayEnd:   s.DayEnd,
			SpanDays: s.SpanDays,
		})
	}
	return out
}

func daysFree(row [timecalc.DaysPerWeek]bool, from, to int) bool {
	for d := from; d <= to; d++ {
		if row[d] {
			return false
		}
	}
	return true
}
