package layout

import (
	"errors"
	"fmt"
	"time"

	"calgrid/internal/model"
)

var ErrUnknownView = errors.New("layout: unknown view mode")

// Layouter computes the layout of one view around an anchor date.
type Layouter interface {
	Layout(events []model.Event, anchor time.Time) (model.Layout, error)
}

// Layouters maps each view mode to its strategy. Build it once with
// NewLayouters and pass it to whoever needs to lay out views.
type Layouters map[model.ViewMode]Layouter

// NewLayouters builds the month, week and day strategies for one grid.
func NewLayouters(grid model.Grid, weekStart time.Weekday) Layouters {
	return Layouters{
		model.ViewMonth: MonthLayouter{Grid: grid, WeekStart: weekStart},
		model.ViewWeek:  WeekLayouter{Grid: grid, WeekStart: weekStart, Days: 7},
		model.ViewDay:   WeekLayouter{Grid: grid, WeekStart: weekStart, Days: 1},
	}
}

// Layout dispatches to the strategy registered for mode.
func (ls Layouters) Layout(mode model.ViewMode, events []model.Event, anchor time.Time) (model.Layout, error) {
	l, ok := ls[mode]
	if !ok {
		return model.Layout{}, fmt.Errorf("%w: %q", ErrUnknownView, mode)
	}
	return l.Layout(events, anchor)
}

// ParseViewMode accepts "month", "week" or "day"; empty defaults to month.
func ParseViewMode(s string) (model.ViewMode, error) {
	switch model.ViewMode(s) {
	case "":
		return model.ViewMonth, nil
	case model.ViewMonth, model.ViewWeek, model.ViewDay:
		return model.ViewMode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}
