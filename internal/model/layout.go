package model

import "time"

// SlotType classifies how an event's range relates to the week it is drawn in.
type SlotType string

const (
	SlotFull   SlotType = "full"   // starts and ends inside the week
	SlotFirst  SlotType = "first"  // continues into a later week
	SlotLast   SlotType = "last"   // continues from an earlier week
	SlotMiddle SlotType = "middle" // continues on both sides
)

// ViewMode selects a calendar layout strategy.
type ViewMode string

const (
	ViewMonth ViewMode = "month"
	ViewWeek  ViewMode = "week"
	ViewDay   ViewMode = "day"
)

// Position is the geometry of a slot: Top/Height in pixels, Left/Width in
// percent of the row.
type Position struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Slot is one positioned piece of an event inside one week row.
type Slot struct {
	ID            string    `json:"id"`
	SourceEventID string    `json:"source_event_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Position      Position  `json:"position"`
	ZIndex        int       `json:"z_index"`
	Type          SlotType  `json:"type"`
	Draggable     bool      `json:"draggable"`
	Resizable     bool      `json:"resizable"`
}

// SlotAssignment is an event placed on a row, with 0–6 day indices relative
// to its week.
type SlotAssignment struct {
	Event    Event `json:"event"`
	RowIndex int   `json:"row_index"`
	DayStart int   `json:"day_start"`
	DayEnd   int   `json:"day_end"`
	SpanDays int   `json:"span_days"`
}

// OverflowRecord describes the "+N more" indicator of one day cell.
type OverflowRecord struct {
	WeekIndex    int     `json:"week_index"`
	DayIndex     int     `json:"day_index"`
	Count        int     `json:"count"`
	ShowAllMode  bool    `json:"show_all_mode"`
	HiddenEvents []Event `json:"hidden_events"`
}

// Grid holds the pixel geometry of the calendar cells.
type Grid struct {
	CellWidth    float64 `json:"cell_width" yaml:"cell_width"`
	CellHeight   float64 `json:"cell_height" yaml:"cell_height"`
	HeaderHeight float64 `json:"header_height" yaml:"header_height"`
	RowHeight    float64 `json:"row_height" yaml:"row_height"`
	RowGap       float64 `json:"row_gap" yaml:"row_gap"`
	HourHeight   float64 `json:"hour_height" yaml:"hour_height"`
	AllDayHeight float64 `json:"all_day_height" yaml:"all_day_height"`
}

// Layout is the complete output of one layout pass.
type Layout struct {
	View      ViewMode         `json:"view"`
	Window    DateRange        `json:"window"`
	Weeks     []DateRange      `json:"weeks"`
	Slots     []Slot           `json:"slots"`
	Overflows []OverflowRecord `json:"overflows"`
}
