package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/mo"

	appLog "calgrid/internal/log"
	"calgrid/internal/model"
	"calgrid/internal/normalize"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

var (
	ErrUnsupportedFrequency = errors.New("recurrence: unsupported frequency")
	ErrNotRecurring         = errors.New("recurrence: event is not recurring")
	ErrInvalidRange         = errors.New("recurrence: query end is before start")
)

// Config controls how a batch of events is expanded.
type Config struct {
	// Window is the inclusive range occurrence starts must fall in.
	Window model.DateRange

	// MaxOccurrencesPerEvent is a safety cap on a single series. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// Result wraps the expanded events and the series that hit the cap.
type Result struct {
	Events []model.Event
	// TruncatedEvents records parent IDs that hit MaxOccurrencesPerEvent.
	TruncatedEvents []string
}

// Expand materializes the occurrences of a recurring event whose start falls
// within query (both ends inclusive).
//
// Each occurrence keeps the template's duration, copies every non-temporal
// field of the parent and is re-tagged as a timed event with
// IsRecurrenceInstance set and ID "<parentID>_<startEpochMillis>".
// Occurrences matching an exception (millisecond precision) or an excluded
// ordinal index are dropped.
func Expand(ev model.Event, query model.DateRange) ([]model.Event, error) {
	out, _, err := expand(ev, query, 0)
	return out, err
}

// ExpandAll expands every recurring event in events and passes through the
// non-recurring ones that overlap cfg.Window, preserving input order. An
// unsupported recurrence frequency aborts the whole batch.
func ExpandAll(events []model.Event, cfg Config) (Result, error) {
	var result Result

	if cfg.Window.End.Before(cfg.Window.Start) {
		return result, ErrInvalidRange
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	all := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.Kind != model.KindRecurring {
			start, end := normalize.Clock(ev)
			if cfg.Window.Overlaps(start, end) {
				all = append(all, ev)
			}
			continue
		}

		occ, hitCap, err := expand(ev, cfg.Window, cfg.MaxOccurrencesPerEvent)
		if err != nil {
			return result, err
		}
		if hitCap {
			result.TruncatedEvents = append(result.TruncatedEvents, ev.ID)
			appLog.Error("expand: truncated occurrences for event due to cap",
				errors.New("max occurrences reached"),
				"id", ev.ID,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
		all = append(all, occ...)
	}

	result.Events = all
	return result, nil
}

// expand walks the series from its anchor up to query.End, which also serves
// as the generator's Until. Walking from the anchor rather than from
// query.Start keeps the ordinal index of every occurrence available for
// ExcludedIndexes. limit <= 0 disables the cap.
func expand(ev model.Event, query model.DateRange, limit int) ([]model.Event, bool, error) {
	if ev.Kind != model.KindRecurring || ev.Rule == nil {
		return nil, false, fmt.Errorf("%w: %s", ErrNotRecurring, ev.ID)
	}
	if query.End.Before(query.Start) {
		return nil, false, ErrInvalidRange
	}

	rule := *ev.Rule
	if until, ok := rule.Until.Get(); !ok || until.After(query.End) {
		rule.Until = mo.Some(query.End)
	}

	r, err := BuildRule(ev.Start, rule)
	if err != nil {
		return nil, false, fmt.Errorf("expand %s: %w", ev.ID, err)
	}

	// rrule-go only checks Until against dates it generates, so a rule that
	// can never produce one would be scanned up to year 9999.
	if !canMatch(rule) {
		return []model.Event{}, false, nil
	}

	dur := ev.End.Sub(ev.Start)
	if dur < 0 {
		dur = 0
	}

	excludedIdx := make(map[int]struct{}, len(ev.ExcludedIndexes))
	for _, i := range ev.ExcludedIndexes {
		excludedIdx[i] = struct{}{}
	}

	out := make([]model.Event, 0)
	next := r.Iterator()
	for idx := 0; ; idx++ {
		occStart, ok := next()
		if !ok || occStart.After(query.End) {
			break
		}
		if occStart.Before(query.Start) {
			continue
		}
		if _, skip := excludedIdx[idx]; skip {
			continue
		}
		if isException(occStart, ev.Exceptions) {
			continue
		}
		if limit > 0 && len(out) >= limit {
			return out, true, nil
		}
		out = append(out, makeOccurrence(ev, occStart, occStart.Add(dur)))
	}

	return out, false, nil
}

// isException compares at millisecond precision. Timestamps that differ below
// that (or by a DST shift) do not match and the occurrence is kept.
func isException(t time.Time, exceptions []time.Time) bool {
	tm := t.Truncate(time.Millisecond)
	for _, ex := range exceptions {
		if ex.Truncate(time.Millisecond).Equal(tm) {
			return true
		}
	}
	return false
}

// makeOccurrence copies the parent and overrides the temporal fields.
func makeOccurrence(parent model.Event, start, end time.Time) model.Event {
	occ := parent
	occ.ID = OccurrenceID(parent.ID, start)
	occ.Kind = model.KindTimed
	occ.Start = start
	occ.End = end
	occ.Rule = nil
	occ.Exceptions = nil
	occ.ExcludedIndexes = nil
	occ.IsRecurrenceInstance = true
	occ.ParentID = parent.ID
	occ.OccurrenceDate = start
	return occ
}

// OccurrenceID is the composite identifier of one occurrence.
func OccurrenceID(parentID string, start time.Time) string {
	return fmt.Sprintf("%s_%d", parentID, start.UnixMilli())
}
