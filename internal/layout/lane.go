package layout

import (
	"fmt"
	"slices"

	"calgrid/internal/model"
	"calgrid/internal/normalize"
)

// lane positions row-assigned events inside one week row and folds what does
// not fit into per-day overflow records.
type lane struct {
	weekIndex int
	week      model.DateRange
	columns   int
	top       float64 // pixel offset of row 0
	rowHeight float64
	rowGap    float64
	capacity  int // rows per day cell; negative means unlimited
}

// place turns assignments into slots and overflow records.
//
// Each day is partitioned independently. A multi-day assignment is drawn only
// when it is visible on every day it covers and its row still lies inside the
// cell; every day carrying an undrawn assignment gets an overflow record, so
// drawn + hidden always equals the events on that day.
func (l lane) place(assignments []model.SlotAssignment) ([]model.Slot, []model.OverflowRecord) {
	hidden := make([]bool, len(assignments))

	if l.capacity >= 0 {
		for d := 0; d < l.columns; d++ {
			idx := l.onDay(assignments, d)
			p := Partition(idx, l.capacity)

			rowLimit := l.capacity
			if p.Overflowed {
				rowLimit = len(p.Visible)
			}
			for _, i := range p.Hidden {
				hidden[i] = true
			}
			for _, i := range p.Visible {
				if assignments[i].RowIndex >= rowLimit {
					hidden[i] = true
				}
			}
		}
	}

	slots := make([]model.Slot, 0, len(assignments))
	for i, a := range assignments {
		if hidden[i] {
			continue
		}
		slots = append(slots, l.slot(a))
	}

	var overflows []model.OverflowRecord
	for d := 0; d < l.columns; d++ {
		var hiddenEvents []model.Event
		for _, i := range l.onDay(assignments, d) {
			if hidden[i] {
				hiddenEvents = append(hiddenEvents, assignments[i].Event)
			}
		}
		if len(hiddenEvents) == 0 {
			continue
		}
		overflows = append(overflows, model.OverflowRecord{
			WeekIndex:    l.weekIndex,
			DayIndex:     d,
			Count:        len(hiddenEvents),
			ShowAllMode:  l.capacity <= 1,
			HiddenEvents: hiddenEvents,
		})
	}

	return slots, overflows
}

// onDay returns the indices of assignments covering day d, in row order.
func (l lane) onDay(assignments []model.SlotAssignment, d int) []int {
	var idx []int
	for i, a := range assignments {
		if a.DayStart <= d && d <= a.DayEnd {
			idx = append(idx, i)
		}
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return assignments[a].RowIndex - assignments[b].RowIndex
	})
	return idx
}

func (l lane) slot(a model.SlotAssignment) model.Slot {
	s := SliceColumns(normalize.Normalize(a.Event), l.week, l.columns)
	return model.Slot{
		ID:            SlotID(a.Event.ID, l.week),
		SourceEventID: a.Event.ID,
		Start:         s.Start,
		End:           s.End,
		Position: model.Position{
			Top:    l.top + float64(a.RowIndex)*(l.rowHeight+l.rowGap),
			Left:   s.Left,
			Width:  s.Width,
			Height: l.rowHeight,
		},
		ZIndex:    a.RowIndex + 1,
		Type:      s.Type,
		Draggable: a.Event.Editable(),
		Resizable: resizable(a.Event, s.Type),
	}
}

// SlotID identifies the piece of an event drawn in the row starting at week.Start.
func SlotID(eventID string, week model.DateRange) string {
	return fmt.Sprintf("%s@%s", eventID, week.Start.Format("20060102"))
}

// resizable: the end handle is only drawn on the piece holding the event's end.
func resizable(ev model.Event, t model.SlotType) bool {
	return ev.Editable() && (t == model.SlotFull || t == model.SlotLast)
}
