package layout

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calgrid/internal/model"
)

func TestAssignRows(t *testing.T) {
	h := func(hour int) time.Time { return at(2025, 1, 6, hour, 0) }

	tests := []struct {
		name  string
		spans []Span
		want  []int
	}{
		{"empty", nil, []int{}},
		{"touching share a row", []Span{{h(9), h(10)}, {h(10), h(11)}}, []int{0, 0}},
		{"overlap opens a row", []Span{{h(9), h(11)}, {h(10), h(12)}}, []int{0, 1}},
		{"reuses lowest free row", []Span{{h(9), h(12)}, {h(9), h(10)}, {h(10), h(11)}, {h(11), h(13)}}, []int{0, 1, 1, 1}},
		{"three deep", []Span{{h(9), h(12)}, {h(9), h(12)}, {h(9), h(12)}}, []int{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssignRows(tt.spans))
		})
	}
}

func TestAssignLaneRows_NoOverlapWithinRow(t *testing.T) {
	week := weekOf(date(2025, 12, 21))
	rnd := rand.New(rand.NewSource(7))

	var events []model.Event
	for i := 0; i < 40; i++ {
		from := week.Start.AddDate(0, 0, rnd.Intn(9)-1)
		events = append(events, allDay(string(rune('a'+i%26))+string(rune('0'+i/26)), from, from.AddDate(0, 0, rnd.Intn(4))))
	}

	got := AssignLaneRows(events, week, 7)
	require.NotEmpty(t, got)
	assertRowsDisjoint(t, got)

	again := AssignLaneRows(events, week, 7)
	assert.Equal(t, got, again)
}

func assertRowsDisjoint(t *testing.T, as []model.SlotAssignment) {
	t.Helper()
	for i := range as {
		for j := i + 1; j < len(as); j++ {
			a, b := as[i], as[j]
			if a.RowIndex != b.RowIndex {
				continue
			}
			overlap := a.DayStart <= b.DayEnd && b.DayStart <= a.DayEnd
			assert.False(t, overlap, "%s and %s share row %d", a.Event.ID, b.Event.ID, a.RowIndex)
		}
	}
}
