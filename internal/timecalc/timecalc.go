package timecalc

import (
	"strings"
	"time"
)

// DaysPerWeek is the number of columns in a week row.
const DaysPerWeek = 7

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of the same day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// CeilDay returns the end of the day an exclusive end instant belongs to.
// An end exactly at midnight closes the previous day, so a 22:00–00:00 event
// stays on one day.
func CeilDay(end time.Time) time.Time {
	if end.Equal(StartOfDay(end)) {
		return end.Add(-time.Nanosecond)
	}
	return EndOfDay(end)
}

// DaysBetween counts calendar days from a to b (negative if b is before a).
// Both are reduced to their date first, so clock times and DST shifts do not matter.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekStart returns 00:00 of the first day of the week containing t.
func WeekStart(t time.Time, first time.Weekday) time.Time {
	offset := (int(t.Weekday()) - int(first) + DaysPerWeek) % DaysPerWeek
	return StartOfDay(t).AddDate(0, 0, -offset)
}

// WeekRange returns the first and last instant of the week containing t.
func WeekRange(t time.Time, first time.Weekday) (time.Time, time.Time) {
	start := WeekStart(t, first)
	return start, EndOfDay(start.AddDate(0, 0, DaysPerWeek-1))
}

// MonthStart returns 00:00 of the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthWeeks returns the start of every week row a month grid shows for t's
// month: from the week containing the 1st to the week containing the last day.
func MonthWeeks(t time.Time, first time.Weekday) []time.Time {
	start := MonthStart(t)
	last := start.AddDate(0, 1, -1)
	weeks := make([]time.Time, 0, 6)
	for w := WeekStart(start, first); !w.After(last); w = w.AddDate(0, 0, DaysPerWeek) {
		weeks = append(weeks, w)
	}
	return weeks
}

// ParseWeekday accepts "monday".."sunday" (any case, three-letter prefixes
// allowed) and reports whether the name was recognised.
func ParseWeekday(name string) (time.Weekday, bool) {
	if len(name) < 3 {
		return time.Sunday, false
	}
	switch strings.ToLower(name[:3]) {
	case "sun":
		return time.Sunday, true
	case "mon":
		return time.Monday, true
	case "tue":
		return time.Tuesday, true
	case "wed":
		return time.Wednesday, true
	case "thu":
		return time.Thursday, true
	case "fri":
		return time.Friday, true
	case "sat":
		return time.Saturday, true
	}
	return time.Sunday, false
}
