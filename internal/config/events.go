package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
	"gopkg.in/yaml.v3"

	"calgrid/internal/model"
	"calgrid/internal/recurrence"
	"calgrid/internal/timecalc"
)

var ErrInvalidEvent = errors.New("config: invalid event")

// timeLayouts are tried in order for every time value in an events file.
// Values without an offset are local calendar times.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// eventFile is one entry of the YAML events list. Exactly one shape is used:
// start/end (timed), date/end_date (all-day) or start/end plus rule or rrule
// (recurring).
type eventFile struct {
	ID         string `yaml:"id"`
	Title      string `yaml:"title"`
	Color      string `yaml:"color"`
	ReadOnly   bool   `yaml:"read_only"`
	Blocked    bool   `yaml:"blocked"`
	ResourceID string `yaml:"resource"`

	Start   string `yaml:"start"`
	End     string `yaml:"end"`
	Date    string `yaml:"date"`
	EndDate string `yaml:"end_date"`

	Rule            *ruleFile `yaml:"rule"`
	RRule           string    `yaml:"rrule"`
	Exceptions      []string  `yaml:"exceptions"`
	ExcludedIndexes []int     `yaml:"excluded_indexes"`
}

type ruleFile struct {
	Freq       string   `yaml:"freq"`
	Interval   int      `yaml:"interval"`
	Count      *int     `yaml:"count"`
	Until      string   `yaml:"until"`
	ByDay      []string `yaml:"by_day"`
	ByMonth    []int    `yaml:"by_month"`
	ByMonthDay []int    `yaml:"by_month_day"`
	BySetPos   []int    `yaml:"by_set_pos"`
	WeekStart  string   `yaml:"week_start"`
}

// LoadEvents reads a YAML list of events.
func LoadEvents(path string) ([]model.Event, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	events, err := ParseEvents(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// ParseEvents decodes a YAML list of events. Entries without an id get
// "event-<n>" (1-based position).
func ParseEvents(data []byte) ([]model.Event, error) {
	var raw []eventFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make([]model.Event, 0, len(raw))
	for i, ef := range raw {
		if ef.ID == "" {
			ef.ID = fmt.Sprintf("event-%d", i+1)
		}
		ev, err := ef.toEvent()
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrInvalidEvent, ef.ID, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func (ef eventFile) toEvent() (model.Event, error) {
	ev := model.Event{
		ID:              ef.ID,
		Title:           ef.Title,
		Color:           ef.Color,
		ReadOnly:        ef.ReadOnly,
		Blocked:         ef.Blocked,
		ResourceID:      ef.ResourceID,
		ExcludedIndexes: ef.ExcludedIndexes,
	}

	if ef.Date != "" {
		if ef.Rule != nil || ef.RRule != "" {
			return ev, errors.New("all-day events cannot recur; use start/end")
		}
		date, err := parseTime(ef.Date)
		if err != nil {
			return ev, fmt.Errorf("date: %w", err)
		}
		ev.Kind = model.KindAllDay
		ev.Date = timecalc.StartOfDay(date)
		if ef.EndDate != "" {
			end, err := parseTime(ef.EndDate)
			if err != nil {
				return ev, fmt.Errorf("end_date: %w", err)
			}
			ev.EndDate = mo.Some(timecalc.StartOfDay(end))
		}
		return ev, nil
	}

	if ef.Start == "" {
		return ev, errors.New("start or date is required")
	}
	start, err := parseTime(ef.Start)
	if err != nil {
		return ev, fmt.Errorf("start: %w", err)
	}
	end := start
	if ef.End != "" {
		if end, err = parseTime(ef.End); err != nil {
			return ev, fmt.Errorf("end: %w", err)
		}
	}
	ev.Kind = model.KindTimed
	ev.Start = start
	ev.End = end

	var rule model.RecurrenceRule
	switch {
	case ef.Rule != nil && ef.RRule != "":
		return ev, errors.New("use either rule or rrule, not both")
	case ef.Rule != nil:
		if rule, err = ef.Rule.toRule(); err != nil {
			return ev, fmt.Errorf("rule: %w", err)
		}
	case ef.RRule != "":
		if rule, err = recurrence.ParseRule(ef.RRule); err != nil {
			return ev, fmt.Errorf("rrule: %w", err)
		}
	default:
		return ev, nil
	}

	ev.Kind = model.KindRecurring
	ev.Rule = &rule
	for _, s := range ef.Exceptions {
		t, err := parseTime(s)
		if err != nil {
			return ev, fmt.Errorf("exception %q: %w", s, err)
		}
		ev.Exceptions = append(ev.Exceptions, t)
	}
	return ev, nil
}

func (rf ruleFile) toRule() (model.RecurrenceRule, error) {
	rule := model.RecurrenceRule{
		Frequency:     model.Frequency(strings.ToLower(rf.Freq)),
		Interval:      rf.Interval,
		ByMonth:       rf.ByMonth,
		ByMonthDay:    rf.ByMonthDay,
		BySetPosition: rf.BySetPos,
	}
	if !rule.Frequency.Valid() {
		return rule, fmt.Errorf("%w: %q", recurrence.ErrUnsupportedFrequency, rf.Freq)
	}
	if rf.Count != nil {
		rule.Count = mo.Some(*rf.Count)
	}
	if rf.Until != "" {
		until, err := parseTime(rf.Until)
		if err != nil {
			return rule, fmt.Errorf("until: %w", err)
		}
		rule.Until = mo.Some(until)
	}
	for _, d := range rf.ByDay {
		wd, err := parseWeekdayNum(d)
		if err != nil {
			return rule, err
		}
		rule.ByDayOfWeek = append(rule.ByDayOfWeek, wd)
	}
	if rf.WeekStart != "" {
		wd, ok := timecalc.ParseWeekday(rf.WeekStart)
		if !ok {
			return rule, fmt.Errorf("week_start %q: unknown weekday", rf.WeekStart)
		}
		rule.WeekStart = mo.Some(wd)
	}
	return rule, nil
}

var weekdayCodes = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

// parseWeekdayNum reads RRULE-style BYDAY entries: "MO", "2TU", "-1FR".
func parseWeekdayNum(s string) (model.WeekdayNum, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return model.WeekdayNum{}, fmt.Errorf("by_day %q: too short", s)
	}
	day, ok := weekdayCodes[s[len(s)-2:]]
	if !ok {
		return model.WeekdayNum{}, fmt.Errorf("by_day %q: unknown weekday", s)
	}
	wd := model.WeekdayNum{Day: day}
	if prefix := s[:len(s)-2]; prefix != "" {
		n, err := strconv.Atoi(prefix)
		if err != nil || n == 0 || n < -53 || n > 53 {
			return model.WeekdayNum{}, fmt.Errorf("by_day %q: bad ordinal", s)
		}
		wd.N = n
	}
	return wd, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}
