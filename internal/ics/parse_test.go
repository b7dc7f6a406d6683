package ics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calgrid/internal/model"
	"calgrid/internal/recurrence"
)

const sample = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//calgrid//test//EN
BEGIN:VEVENT
UID:standup@example.com
SUMMARY:Standup
COLOR:teal
RESOURCES:room-1,room-2
DTSTART:20250106T090000Z
DTEND:20250106T091500Z
RRULE:FREQ=WEEKLY;BYDAY=MO,WE;COUNT=6
EXDATE:20250108T090000Z
END:VEVENT
BEGIN:VEVENT
UID:standup@example.com
RECURRENCE-ID:20250113T090000Z
SUMMARY:Standup (moved)
DTSTART:20250113T100000Z
DTEND:20250113T101500Z
END:VEVENT
BEGIN:VEVENT
UID:offsite@example.com
SUMMARY:Offsite
DTSTART;VALUE=DATE:20250120
DTEND;VALUE=DATE:20250123
END:VEVENT
BEGIN:VEVENT
UID:holiday@example.com
SUMMARY:Holiday
DTSTART;VALUE=DATE:20250101
END:VEVENT
BEGIN:VEVENT
SUMMARY:No UID
DTSTART:20250110T120000Z
DTEND:20250110T130000Z
END:VEVENT
BEGIN:VEVENT
UID:every-hour@example.com
SUMMARY:Too often
DTSTART:20250110T120000Z
DTEND:20250110T121000Z
RRULE:FREQ=HOURLY
END:VEVENT
BEGIN:VEVENT
UID:cancelled@example.com
STATUS:CANCELLED
SUMMARY:Gone
DTSTART:20250111T120000Z
DTEND:20250111T130000Z
END:VEVENT
END:VCALENDAR
`

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func byID(events []model.Event) map[string]model.Event {
	out := make(map[string]model.Event, len(events))
	for _, ev := range events {
		out[ev.ID] = ev
	}
	return out
}

func TestParseICS(t *testing.T) {
	events, err := ParseICS(Source{ID: "work", URL: "https://example.com/cal.ics?token=secret"}, crlf(sample))
	require.NoError(t, err)

	// hourly rule and cancelled event are dropped
	require.Len(t, events, 5)
	got := byID(events)

	standup, ok := got["standup@example.com"]
	require.True(t, ok)
	assert.Equal(t, model.KindRecurring, standup.Kind)
	assert.Equal(t, "Standup", standup.Title)
	assert.Equal(t, "teal", standup.Color)
	assert.Equal(t, "room-1", standup.ResourceID)
	assert.Equal(t, "work", standup.SourceID)
	assert.True(t, standup.ReadOnly)
	require.NotNil(t, standup.Rule)
	assert.Equal(t, model.FrequencyWeekly, standup.Rule.Frequency)
	assert.Equal(t, 6, standup.Rule.Count.OrEmpty())
	assert.Equal(t, model.Every(time.Monday, time.Wednesday), standup.Rule.ByDayOfWeek)

	moved := time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC)
	require.Len(t, standup.Exceptions, 2)
	assert.True(t, standup.Exceptions[0].Equal(time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC)))
	assert.True(t, standup.Exceptions[1].Equal(moved))

	override, ok := got[recurrence.OccurrenceID("standup@example.com", moved)]
	require.True(t, ok)
	assert.Equal(t, model.KindTimed, override.Kind)
	assert.True(t, override.IsRecurrenceInstance)
	assert.Equal(t, "standup@example.com", override.ParentID)
	assert.Equal(t, "Standup (moved)", override.Title)
	assert.True(t, override.Start.Equal(time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC)))

	offsite := got["offsite@example.com"]
	assert.Equal(t, model.KindAllDay, offsite.Kind)
	assert.Equal(t, 20, offsite.Date.Day())
	require.True(t, offsite.EndDate.IsPresent())
	assert.Equal(t, 22, offsite.EndDate.MustGet().Day(), "DTEND is exclusive")

	holiday := got["holiday@example.com"]
	assert.Equal(t, model.KindAllDay, holiday.Kind)
	assert.True(t, holiday.EndDate.IsAbsent())

	var anonymous model.Event
	for _, ev := range events {
		if ev.Title == "No UID" {
			anonymous = ev
		}
	}
	require.NotEmpty(t, anonymous.ID)
	assert.Equal(t, model.KindTimed, anonymous.Kind)

	again, err := ParseICS(Source{ID: "work"}, crlf(sample))
	require.NoError(t, err)
	assert.Contains(t, byID(again), anonymous.ID, "generated IDs are stable")
}

func TestParseICS_ExpandsWithOverride(t *testing.T) {
	events, err := ParseICS(Source{ID: "work"}, crlf(sample))
	require.NoError(t, err)

	standup := byID(events)["standup@example.com"]
	occ, err := recurrence.Expand(standup, model.DateRange{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Jan 6, 8, 13, 15, 20, 22 minus EXDATE Jan 8 and the moved Jan 13.
	require.Len(t, occ, 4)
	for _, o := range occ {
		assert.NotEqual(t, 8, o.Start.Day())
		assert.NotEqual(t, 13, o.Start.Day())
	}
}

func TestParseICS_Errors(t *testing.T) {
	_, err := ParseICS(Source{ID: "x"}, nil)
	assert.ErrorIs(t, err, ErrEmptyBody)

	_, err = ParseICS(Source{ID: "x"}, []byte("not a calendar"))
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "family.ics")
	require.NoError(t, os.WriteFile(path, crlf(sample), 0o600))

	events, err := ParseFile(path, "")
	require.NoError(t, err)
	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.Equal(t, "family", ev.SourceID)
	}
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/private/cal.ics?token=abc"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
