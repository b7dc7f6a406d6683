package layout

import (
	"time"

	"calgrid/internal/model"
	"calgrid/internal/normalize"
	"calgrid/internal/recurrence"
	"calgrid/internal/timecalc"
)

// MonthLayouter lays events out on a month grid: one row per week, events
// stacked on slots shared across the row.
type MonthLayouter struct {
	Grid      model.Grid
	WeekStart time.Weekday
}

// Layout lays out the month containing anchor.
func (m MonthLayouter) Layout(events []model.Event, anchor time.Time) (model.Layout, error) {
	starts := timecalc.MonthWeeks(anchor, m.WeekStart)
	weeks := make([]model.DateRange, 0, len(starts))
	for _, s := range starts {
		weeks = append(weeks, weekRange(s, timecalc.DaysPerWeek))
	}
	return m.LayoutWeeks(events, weeks)
}

// LayoutWeeks lays out an explicit list of week rows. Recurring events are
// expanded over the span of all weeks first.
func (m MonthLayouter) LayoutWeeks(events []model.Event, weeks []model.DateRange) (model.Layout, error) {
	out := model.Layout{
		View:      model.ViewMonth,
		Weeks:     weeks,
		Slots:     []model.Slot{},
		Overflows: []model.OverflowRecord{},
	}
	if len(weeks) == 0 {
		return out, nil
	}
	out.Window = model.DateRange{Start: weeks[0].Start, End: weeks[len(weeks)-1].End}

	expanded, err := recurrence.ExpandAll(events, recurrence.Config{Window: out.Window})
	if err != nil {
		return out, err
	}

	capacity := CellCapacity(m.Grid.CellHeight-m.Grid.HeaderHeight, m.Grid.RowHeight, m.Grid.RowGap)

	for i, week := range weeks {
		inWeek := eventsInRange(expanded.Events, week)
		assignments := AssignSlots(inWeek, week)

		l := lane{
			weekIndex: i,
			week:      week,
			columns:   timecalc.DaysPerWeek,
			top:       m.Grid.HeaderHeight,
			rowHeight: m.Grid.RowHeight,
			rowGap:    m.Grid.RowGap,
			capacity:  capacity,
		}
		slots, overflows := l.place(assignments)
		out.Slots = append(out.Slots, slots...)
		out.Overflows = append(out.Overflows, overflows...)
	}

	return out, nil
}

// weekRange covers `days` whole days from start.
func weekRange(start time.Time, days int) model.DateRange {
	start = timecalc.StartOfDay(start)
	return model.DateRange{
		Start: start,
		End:   timecalc.EndOfDay(start.AddDate(0, 0, days-1)),
	}
}

func eventsInRange(events []model.Event, r model.DateRange) []model.Event {
	var out []model.Event
	for _, ev := range events {
		n := normalize.Normalize(ev)
		if r.Overlaps(n.Start, n.End) {
			out = append(out, ev)
		}
	}
	return out
}
