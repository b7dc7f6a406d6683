package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellCapacity(t *testing.T) {
	tests := []struct {
		name             string
		height, row, gap float64
		want             int
	}{
		{"exact fit", 100, 20, 0, 5},
		{"gap between rows", 100, 20, 5, 4},
		{"last row needs no gap", 95, 20, 5, 4},
		{"smaller than a row", 19, 20, 0, 0},
		{"zero height", 0, 20, 2, 0},
		{"negative height", -10, 20, 2, 0},
		{"zero row height", 100, 0, 2, 0},
		{"negative gap ignored", 100, 20, -5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CellCapacity(tt.height, tt.row, tt.gap))
		})
	}
}

func TestPartition(t *testing.T) {
	items := func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}

	tests := []struct {
		name        string
		n, capacity int
		visible     []int
		hidden      int
		showAll     bool
		overflowed  bool
	}{
		{"fits", 3, 5, []int{0, 1, 2}, 0, false, false},
		{"exactly full", 5, 5, []int{0, 1, 2, 3, 4}, 0, false, false},
		{"one too many", 6, 5, []int{0, 1, 2, 3}, 2, false, true},
		{"capacity two", 3, 2, []int{0}, 2, false, true},
		{"capacity one", 3, 1, []int{}, 3, true, true},
		{"capacity zero", 2, 0, []int{}, 2, true, true},
		{"single fits capacity one", 1, 1, []int{0}, 0, false, false},
		{"empty", 0, 0, []int{}, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Partition(items(tt.n), tt.capacity)

			assert.Equal(t, tt.visible, p.Visible)
			assert.Equal(t, tt.hidden, p.HiddenCount)
			assert.Len(t, p.Hidden, tt.hidden)
			assert.Equal(t, tt.showAll, p.ShowAllMode)
			assert.Equal(t, tt.overflowed, p.Overflowed)
		})
	}
}

func TestPartition_Conserves(t *testing.T) {
	for n := 0; n <= 12; n++ {
		for capacity := 0; capacity <= 8; capacity++ {
			slots := make([]string, n)
			p := Partition(slots, capacity)

			assert.Equal(t, n, len(p.Visible)+p.HiddenCount, "n=%d capacity=%d", n, capacity)
			assert.LessOrEqual(t, len(p.Visible), max(capacity, 0))
			if p.ShowAllMode {
				assert.Empty(t, p.Visible)
			}
		}
	}
}
