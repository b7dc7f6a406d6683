package layout

import "math"

// DayPartition splits one day's slots into the ones drawn in the cell and the
// ones folded into the "+N more" indicator.
type DayPartition[T any] struct {
	Visible     []T
	Hidden      []T
	HiddenCount int
	// ShowAllMode means the cell only has room for the indicator itself.
	ShowAllMode bool
	// Overflowed is false when everything fits and no indicator is needed.
	Overflowed bool
}

// CellCapacity is how many rows of rowHeight, separated by rowGap, fit in
// availableHeight. Non-positive heights yield 0.
func CellCapacity(availableHeight, rowHeight, rowGap float64) int {
	if availableHeight <= 0 || rowHeight <= 0 {
		return 0
	}
	if rowGap < 0 {
		rowGap = 0
	}
	return int(math.Floor((availableHeight + rowGap) / (rowHeight + rowGap)))
}

// Partition splits slots, already in row order, against a cell capacity.
// When they do not all fit, one row is given up for the overflow indicator;
// a capacity of 0 or 1 leaves only the indicator. The order of slots is kept.
func Partition[T any](slots []T, capacity int) DayPartition[T] {
	if len(slots) <= capacity {
		return DayPartition[T]{Visible: slots}
	}

	maxVisible := capacity - 1
	showAll := false
	if capacity <= 1 {
		maxVisible = 0
		showAll = true
	}

	return DayPartition[T]{
		Visible:     slots[:maxVisible],
		Hidden:      slots[maxVisible:],
		HiddenCount: len(slots) - maxVisible,
		ShowAllMode: showAll,
		Overflowed:  true,
	}
}
