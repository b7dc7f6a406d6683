package model

import (
	"time"

	"github.com/samber/mo"
)

// Frequency is the base period of a recurrence rule.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Valid reports whether the engine can expand this frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// WeekdayNum selects a weekday, optionally the Nth one within the month or
// year (N=2 second, N=-1 last). N=0 selects every matching weekday.
type WeekdayNum struct {
	Day time.Weekday `json:"day"`
	N   int          `json:"n,omitempty"`
}

// Every selects every given weekday.
func Every(days ...time.Weekday) []WeekdayNum {
	out := make([]WeekdayNum, 0, len(days))
	for _, d := range days {
		out = append(out, WeekdayNum{Day: d})
	}
	return out
}

// RecurrenceRule is the subset of RFC 5545 RRULE the engine expands.
// Count and Until may both be set; the series stops at whichever bound is
// reached first.
type RecurrenceRule struct {
	Frequency     Frequency               `json:"frequency"`
	Interval      int                     `json:"interval"`
	Count         mo.Option[int]          `json:"count"`
	Until         mo.Option[time.Time]    `json:"until"`
	ByDayOfWeek   []WeekdayNum            `json:"by_day_of_week,omitempty"`
	ByMonth       []int                   `json:"by_month,omitempty"`
	ByMonthDay    []int                   `json:"by_month_day,omitempty"`
	BySetPosition []int                   `json:"by_set_position,omitempty"`
	WeekStart     mo.Option[time.Weekday] `json:"week_start"`
}
