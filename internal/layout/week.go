package layout

import (
	"slices"
	"time"

	"calgrid/internal/model"
	"calgrid/internal/normalize"
	"calgrid/internal/recurrence"
	"calgrid/internal/timecalc"
)

// minTimedDuration keeps zero-length and very short events visible and
// competing for a lane.
const minTimedDuration = 15 * time.Minute

// WeekLayouter lays out a week (Days = 7) or a single day (Days = 1).
// All-day and multi-day events share an all-day lane at the top of the row;
// single-day timed events are placed by clock time below it, side by side
// when they overlap.
type WeekLayouter struct {
	Grid      model.Grid
	WeekStart time.Weekday
	Days      int
}

// Layout lays out the week (or day) containing anchor.
func (w WeekLayouter) Layout(events []model.Event, anchor time.Time) (model.Layout, error) {
	columns := w.columns()

	start := timecalc.StartOfDay(anchor)
	view := model.ViewDay
	if columns > 1 {
		start = timecalc.WeekStart(anchor, w.WeekStart)
		view = model.ViewWeek
	}
	week := weekRange(start, columns)

	out := model.Layout{
		View:      view,
		Window:    week,
		Weeks:     []model.DateRange{week},
		Slots:     []model.Slot{},
		Overflows: []model.OverflowRecord{},
	}

	expanded, err := recurrence.ExpandAll(events, recurrence.Config{Window: week})
	if err != nil {
		return out, err
	}

	var allDay, timed []model.Event
	for _, ev := range eventsInRange(expanded.Events, week) {
		if normalize.IsMultiDay(ev) {
			allDay = append(allDay, ev)
		} else {
			timed = append(timed, ev)
		}
	}

	l := lane{
		weekIndex: 0,
		week:      week,
		columns:   columns,
		top:       0,
		rowHeight: w.Grid.RowHeight,
		rowGap:    w.Grid.RowGap,
		capacity:  CellCapacity(w.Grid.AllDayHeight, w.Grid.RowHeight, w.Grid.RowGap),
	}
	slots, overflows := l.place(AssignLaneRows(allDay, week, columns))
	out.Slots = append(out.Slots, slots...)
	out.Overflows = append(out.Overflows, overflows...)

	for d := 0; d < columns; d++ {
		out.Slots = append(out.Slots, w.timedColumn(timed, week, d, columns)...)
	}

	return out, nil
}

func (w WeekLayouter) columns() int {
	if w.Days == 1 {
		return 1
	}
	return timecalc.DaysPerWeek
}

// timedColumn positions the timed events of day column d. Overlapping events
// split the column into equal-width lanes.
func (w WeekLayouter) timedColumn(events []model.Event, week model.DateRange, d, columns int) []model.Slot {
	day := weekRange(week.Start.AddDate(0, 0, d), 1)

	type entry struct {
		ev         model.Event
		start, end time.Time
		clockEnd   time.Time
	}
	var entries []entry
	for _, ev := range events {
		s, e := normalize.Clock(ev)
		if !timecalc.SameDay(s, day.Start) {
			continue
		}
		drawEnd := e
		if e.Sub(s) < minTimedDuration {
			drawEnd = s.Add(minTimedDuration)
		}
		entries = append(entries, entry{ev: ev, start: s, end: drawEnd, clockEnd: e})
	}
	if len(entries) == 0 {
		return nil
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		if c := a.start.Compare(b.start); c != 0 {
			return c
		}
		return b.end.Compare(a.end)
	})

	spans := make([]Span, len(entries))
	for i, e := range entries {
		spans[i] = Span{Start: e.start, End: e.end}
	}
	lanes := AssignRows(spans)
	laneCounts := clusterLaneCounts(spans, lanes)

	colWidth := 100 / float64(columns)
	pxPerMinute := w.Grid.HourHeight / 60

	out := make([]model.Slot, 0, len(entries))
	for i, e := range entries {
		laneWidth := colWidth / float64(laneCounts[i])
		offset := e.start.Sub(day.Start).Minutes()
		t := DetermineSlotType(normalize.Normalize(e.ev), day)
		out = append(out, model.Slot{
			ID:            SlotID(e.ev.ID, day),
			SourceEventID: e.ev.ID,
			Start:         e.start,
			End:           e.clockEnd,
			Position: model.Position{
				Top:    w.Grid.AllDayHeight + offset*pxPerMinute,
				Left:   float64(d)*colWidth + float64(lanes[i])*laneWidth,
				Width:  laneWidth,
				Height: e.end.Sub(e.start).Minutes() * pxPerMinute,
			},
			ZIndex:    lanes[i] + 1,
			Type:      t,
			Draggable: e.ev.Editable(),
			Resizable: resizable(e.ev, t),
		})
	}
	return out
}

// clusterLaneCounts gives each span the lane count of its overlap cluster:
// spans chained together by overlaps share the column width, a span that
// overlaps nothing keeps all of it. spans must be sorted by start.
func clusterLaneCounts(spans []Span, lanes []int) []int {
	counts := make([]int, len(spans))
	first := 0
	var clusterEnd time.Time
	flush := func(end int) {
		n := slices.Max(lanes[first:end]) + 1
		for j := first; j < end; j++ {
			counts[j] = n
		}
	}
	for i, sp := range spans {
		if i > 0 && !sp.Start.Before(clusterEnd) {
			flush(i)
			first = i
		}
		if i == first || sp.End.After(clusterEnd) {
			clusterEnd = sp.End
		}
	}
	if len(spans) > 0 {
		flush(len(spans))
	}
	return counts
}
