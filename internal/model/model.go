package model

import (
	"time"

	"github.com/samber/mo"
)

// EventKind tags which variant of Event is populated.
type EventKind string

const (
	KindTimed     EventKind = "timed"
	KindAllDay    EventKind = "all_day"
	KindRecurring EventKind = "recurring"
)

// Event is a source calendar event. Exactly one variant is meaningful,
// selected by Kind:
//
//   - KindTimed:     Start, End
//   - KindAllDay:    Date, EndDate (inclusive, defaults to Date)
//   - KindRecurring: Start, End of the first occurrence, Rule, Exceptions
//
// Occurrences produced by recurrence expansion are KindTimed events with
// IsRecurrenceInstance set; they are never written back into the parent.
type Event struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Color      string `json:"color,omitempty"`
	ReadOnly   bool   `json:"read_only,omitempty"`
	Blocked    bool   `json:"blocked,omitempty"`
	ResourceID string `json:"resource_id,omitempty"`
	SourceID   string `json:"source_id,omitempty"`

	Kind EventKind `json:"kind"`

	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`

	Date    time.Time            `json:"date,omitzero"`
	EndDate mo.Option[time.Time] `json:"end_date"`

	Rule            *RecurrenceRule `json:"rule,omitempty"`
	Exceptions      []time.Time     `json:"exceptions,omitempty"`
	ExcludedIndexes []int           `json:"excluded_indexes,omitempty"`

	IsRecurrenceInstance bool      `json:"is_recurrence_instance,omitempty"`
	ParentID             string    `json:"parent_id,omitempty"`
	OccurrenceDate       time.Time `json:"occurrence_date,omitzero"`
}

// Editable reports whether the interaction layer may move or resize the event.
func (e Event) Editable() bool {
	return !e.ReadOnly && !e.Blocked
}

// LastDate is the inclusive last day of an all-day event.
func (e Event) LastDate() time.Time {
	return e.EndDate.OrElse(e.Date)
}

// Resource is what an event can belong to: a person, a room, a calendar feed.
type Resource struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Color string `json:"color,omitempty"`
}

// TimeInterval is a closed [Start, End] range. Producers are expected to keep
// Start <= End but the engine tolerates violations.
type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DateRange is a query window or a week boundary.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies in [Start, End].
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Overlaps reports whether [start, end] intersects the range (touching counts).
func (r DateRange) Overlaps(start, end time.Time) bool {
	return !end.Before(r.Start) && !start.After(r.End)
}
