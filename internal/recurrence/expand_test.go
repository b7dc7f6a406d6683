package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calgrid/internal/model"
)

func jan(day, hour int) time.Time {
	return time.Date(2025, 1, day, hour, 0, 0, 0, time.UTC)
}

func january() model.DateRange {
	return model.DateRange{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func recurring(rule model.RecurrenceRule) model.Event {
	return model.Event{
		ID:         "standup",
		Title:      "Standup",
		Color:      "#3366ff",
		ResourceID: "room-1",
		Kind:       model.KindRecurring,
		Start:      jan(1, 10),
		End:        jan(1, 11),
		Rule:       &rule,
	}
}

func TestExpand_DailyCount(t *testing.T) {
	ev := recurring(model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 1})

	occ, err := Expand(ev, january())
	require.NoError(t, err)
	require.Len(t, occ, 31)

	assert.Equal(t, jan(1, 10), occ[0].Start)
	assert.Equal(t, jan(31, 10), occ[30].Start)
	for _, o := range occ {
		assert.Equal(t, time.Hour, o.End.Sub(o.Start))
	}
}

func TestExpand_WeeklyByDay(t *testing.T) {
	ev := recurring(model.RecurrenceRule{
		Frequency:   model.FrequencyWeekly,
		Interval:    1,
		ByDayOfWeek: model.Every(time.Monday, time.Wednesday),
	})

	occ, err := Expand(ev, january())
	require.NoError(t, err)
	require.Len(t, occ, 9)

	var mondays, wednesdays int
	for _, o := range occ {
		switch o.Start.Weekday() {
		case time.Monday:
			mondays++
		case time.Wednesday:
			wednesdays++
		default:
			t.Errorf("unexpected weekday %s", o.Start.Weekday())
		}
	}
	assert.Equal(t, 4, mondays)
	assert.Equal(t, 5, wednesdays)
	assert.Equal(t, jan(1, 10), occ[0].Start)
}

func TestExpand_Exceptions(t *testing.T) {
	ev := recurring(model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 1})
	ev.Exceptions = []time.Time{jan(10, 10), jan(20, 10)}

	occ, err := Expand(ev, january())
	require.NoError(t, err)
	require.Len(t, occ, 29)

	for _, o := range occ {
		assert.False(t, o.Start.Equal(jan(10, 10)), "Jan 10 should be excluded")
		assert.False(t, o.Start.Equal(jan(20, 10)), "Jan 20 should be excluded")
	}
}

func TestExpand_ExceptionPrecision(t *testing.T) {
	ev := recurring(model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 1})
	ev.Exceptions = []time.Time{
		jan(10, 10).Add(300 * time.Microsecond), // same millisecond: matches
		jan(20, 10).Add(5 * time.Millisecond),   // differs: silently kept
	}

	occ, err := Expand(ev, january())
	require.NoError(t, err)
	assert.Len(t, occ, 30)
}

func TestExpand_ExcludedIndexes(t *testing.T) {
	ev := recurring(model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 1})
	ev.ExcludedIndexes = []int{0, 4}

	// Ordinals count from the anchor even when the window starts later.
	window := model.DateRange{Start: jan(3, 0), End: jan(7, 0)}
	occ, err := Expand(ev, window)
	require.NoError(t, err)

	starts := make([]time.Time, 0, len(occ))
	for _, o := range occ {
		starts = append(starts, o.Start)
	}
	assert.Equal(t, []time.Time{jan(3, 10), jan(4, 10), jan(6, 10)}, starts)
}

func TestExpand_CountAndUntil(t *testing.T) {
	tests := []struct {
		name  string
		count int
		until time.Time
		want  int
	}{
		{"until reached first", 10, jan(5, 10), 5},
		{"count reached first", 3, jan(31, 10), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := recurring(model.RecurrenceRule{
				Frequency: model.FrequencyDaily,
				Interval:  1,
				Count:     mo.Some(tt.count),
				Until:     mo.Some(tt.until),
			})
			occ, err := Expand(ev, january())
			require.NoError(t, err)
			assert.Len(t, occ, tt.want)
		})
	}
}

func TestExpand_UnboundedRuleStopsAtWindow(t *testing.T) {
	ev := recurring(model.RecurrenceRule{Frequency: model.FrequencyYearly, Interval: 1})
	window := model.DateRange{Start: jan(1, 0), End: time.Date(2035, 1, 1, 0, 0, 0, 0, time.UTC)}

	occ, err := Expand(ev, window)
	require.NoError(t, err)
	assert.Len(t, occ, 10)
}

func TestExpand_ImpossibleDateIsEmpty(t *testing.T) {
	ev := recurring(model.RecurrenceRule{
		Frequency:  model.FrequencyYearly,
		Interval:   1,
		ByMonth:    []int{2},
		ByMonthDay: []int{30},
	})

	occ, err := Expand(ev, january())
	require.NoError(t, err)
	assert.Empty(t, occ)

	ev.Rule.Frequency = "hourly"
	_, err = Expand(ev, january())
	assert.ErrorIs(t, err, ErrUnsupportedFrequency)
}

func TestCanMatch(t *testing.T) {
	tests := []struct {
		name     string
		byMonth  []int
		monthDay []int
		want     bool
	}{
		{"no month days", []int{2}, nil, true},
		{"feb 29", []int{2}, []int{29}, true},
		{"feb 30", []int{2}, []int{30}, false},
		{"last day of feb", []int{2}, []int{-1}, true},
		{"31st in april or june", []int{4, 6}, []int{31}, false},
		{"31st in any month", nil, []int{31}, true},
		{"one possible combination", []int{2, 3}, []int{30}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := model.RecurrenceRule{Frequency: model.FrequencyYearly, ByMonth: tt.byMonth, ByMonthDay: tt.monthDay}
			assert.Equal(t, tt.want, canMatch(rule))
		})
	}
}

func TestExpand_MonthlyLastWeekday(t *testing.T) {
	ev := recurring(model.RecurrenceRule{
		Frequency:     model.FrequencyMonthly,
		Interval:      1,
		ByDayOfWeek:   model.Every(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
		BySetPosition: []int{-1},
	})
	window := model.DateRange{Start: jan(1, 0), End: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)}

	occ, err := Expand(ev, window)
	require.NoError(t, err)
	require.Len(t, occ, 3)
	assert.Equal(t, 31, occ[0].Start.Day())
	assert.Equal(t, time.February, occ[1].Start.Month())
	assert.Equal(t, 28, occ[1].Start.Day())
	assert.Equal(t, 31, occ[2].Start.Day())
}

func TestExpand_OccurrenceFields(t *testing.T) {
	ev := recurring(model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 1})
	ev.Exceptions = []time.Time{jan(2, 10)}

	occ, err := Expand(ev, model.DateRange{Start: jan(1, 0), End: jan(1, 23)})
	require.NoError(t, err)
	require.Len(t, occ, 1)

	o := occ[0]
	assert.Equal(t, "standup_1735725600000", o.ID)
	assert.Equal(t, model.KindTimed, o.Kind)
	assert.True(t, o.IsRecurrenceInstance)
	assert.Equal(t, "standup", o.ParentID)
	assert.Equal(t, jan(1, 10), o.OccurrenceDate)
	assert.Equal(t, "Standup", o.Title)
	assert.Equal(t, "#3366ff", o.Color)
	assert.Equal(t, "room-1", o.ResourceID)
	assert.Nil(t, o.Rule)
	assert.Empty(t, o.Exceptions)

	// The parent is untouched.
	assert.Equal(t, model.KindRecurring, ev.Kind)
	assert.NotNil(t, ev.Rule)
}

func TestExpand_Errors(t *testing.T) {
	t.Run("unsupported frequency", func(t *testing.T) {
		ev := recurring(model.RecurrenceRule{Frequency: "hourly", Interval: 1})
		_, err := Expand(ev, january())
		assert.True(t, errors.Is(err, ErrUnsupportedFrequency))
	})

	t.Run("not recurring", func(t *testing.T) {
		ev := model.Event{ID: "x", Kind: model.KindTimed, Start: jan(1, 9), End: jan(1, 10)}
		_, err := Expand(ev, january())
		assert.True(t, errors.Is(err, ErrNotRecurring))
	})

	t.Run("inverted window", func(t *testing.T) {
		ev := recurring(model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 1})
		_, err := Expand(ev, model.DateRange{Start: jan(5, 0), End: jan(1, 0)})
		assert.True(t, errors.Is(err, ErrInvalidRange))
	})
}

func TestExpand_NegativeDurationClamped(t *testing.T) {
	ev := recurring(model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 1, Count: mo.Some(2)})
	ev.End = ev.Start.Add(-time.Hour)

	occ, err := Expand(ev, january())
	require.NoError(t, err)
	require.Len(t, occ, 2)
	for _, o := range occ {
		assert.Equal(t, o.Start, o.End)
	}
}

func TestExpandAll(t *testing.T) {
	events := []model.Event{
		{ID: "before", Kind: model.KindTimed, Start: time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC), End: time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "meeting", Kind: model.KindTimed, Start: jan(15, 9), End: jan(15, 10)},
		{ID: "holiday", Kind: model.KindAllDay, Date: jan(20, 0)},
		recurring(model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 1}),
	}

	res, err := ExpandAll(events, Config{Window: january(), MaxOccurrencesPerEvent: 10})
	require.NoError(t, err)

	assert.Equal(t, []string{"standup"}, res.TruncatedEvents)
	require.Len(t, res.Events, 12)
	assert.Equal(t, "meeting", res.Events[0].ID)
	assert.Equal(t, "holiday", res.Events[1].ID)
	assert.True(t, res.Events[2].IsRecurrenceInstance)
}

func TestExpandAll_UnsupportedFrequencyFails(t *testing.T) {
	events := []model.Event{recurring(model.RecurrenceRule{Frequency: "secondly"})}
	_, err := ExpandAll(events, Config{Window: january()})
	assert.ErrorIs(t, err, ErrUnsupportedFrequency)
}
