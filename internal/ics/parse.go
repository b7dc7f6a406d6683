package ics

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/samber/mo"

	appLog "calgrid/internal/log"
	"calgrid/internal/model"
	"calgrid/internal/recurrence"
	"calgrid/internal/timecalc"
)

var ErrEmptyBody = errors.New("ics: empty body")

// ParseICS parses a single ICS payload into engine events tagged with src.ID.
//
//   - DTSTART with VALUE=DATE (or without a time part) makes an all-day event
//     whose inclusive EndDate is the day before DTEND.
//   - RRULE makes a recurring event; EXDATE values become its exceptions.
//     Rules the engine cannot expand (HOURLY and finer) are logged and the
//     event is skipped.
//   - A VEVENT carrying RECURRENCE-ID replaces that occurrence of its series:
//     the original start is added to the parent's exceptions and the override
//     is kept as a standalone occurrence.
//   - CANCELLED events are dropped. Events from feeds are read-only.
func ParseICS(src Source, body []byte) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	events := make([]model.Event, 0)
	parents := make(map[string]int)
	var overrides []override

	for _, ve := range cal.Events() {
		if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil && strings.EqualFold(p.Value, "CANCELLED") {
			appLog.Debug("ics vevent cancelled; skipping", "id", src.ID, "uid", propValue(ve, ical.ComponentPropertyUniqueId))
			continue
		}

		ev, rid, perr := parseVEvent(src, ve)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent parse failed", perr, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		if rid.IsPresent() {
			overrides = append(overrides, override{ev: ev, rid: rid.MustGet()})
			continue
		}
		if ev.Kind == model.KindRecurring {
			parents[ev.ID] = len(events)
		}
		events = append(events, ev)
	}

	for _, o := range overrides {
		uid := o.ev.ID
		if i, ok := parents[uid]; ok {
			events[i].Exceptions = append(events[i].Exceptions, o.rid)
		}
		o.ev.ID = recurrence.OccurrenceID(uid, o.rid)
		o.ev.ParentID = uid
		o.ev.IsRecurrenceInstance = true
		o.ev.OccurrenceDate = o.rid
		events = append(events, o.ev)
	}

	appLog.Info("ics parse completed", "id", src.ID, "url", redactURL(src.URL), "event_count", len(events), "override_count", len(overrides))
	return events, nil
}

type override struct {
	ev  model.Event
	rid time.Time
}

func parseVEvent(src Source, ve *ical.VEvent) (model.Event, mo.Option[time.Time], error) {
	out := model.Event{
		SourceID: src.ID,
		ReadOnly: true,
		Title:    propValue(ve, ical.ComponentPropertySummary),
		Color:    propValue(ve, ical.ComponentPropertyColor),
	}
	if out.Color == "" {
		out.Color = src.Color
	}
	rid := mo.None[time.Time]()

	dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStartProp == nil {
		return out, rid, errors.New("missing DTSTART")
	}

	// UID; feeds without one get a stable ID derived from the event itself.
	out.ID = propValue(ve, ical.ComponentPropertyUniqueId)
	if out.ID == "" {
		name := src.ID + "|" + dtStartProp.Value + "|" + out.Title
		out.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
	}

	// RESOURCES may list several; the first one owns the event.
	if res := propValue(ve, ical.ComponentPropertyResources); res != "" {
		out.ResourceID = strings.TrimSpace(strings.Split(res, ",")[0])
	}

	allDay := isDateValue(dtStartProp)

	var start, end time.Time
	var err error
	if allDay {
		start, err = ve.GetAllDayStartAt()
	} else {
		start, err = ve.GetStartAt()
	}
	if err != nil {
		return out, rid, fmt.Errorf("uid %s: DTSTART: %w", out.ID, err)
	}

	// DTEND is optional: a date-only event then lasts one day, a timed one
	// has zero duration.
	end = start
	if allDay {
		end = start.AddDate(0, 0, 1)
	}
	if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
		if allDay {
			end, err = ve.GetAllDayEndAt()
		} else {
			end, err = ve.GetEndAt()
		}
		if err != nil {
			return out, rid, fmt.Errorf("uid %s: DTEND: %w", out.ID, err)
		}
	}

	if ridProp := ve.GetProperty(ical.ComponentPropertyRecurrenceId); ridProp != nil {
		t, perr := parseICSTime(ridProp.Value, propLocation(ridProp, start.Location()))
		if perr != nil {
			return out, rid, fmt.Errorf("uid %s: RECURRENCE-ID: %w", out.ID, perr)
		}
		rid = mo.Some(t)
	}

	rruleProp := ve.GetProperty(ical.ComponentPropertyRrule)
	switch {
	case rruleProp != nil && rid.IsAbsent():
		rule, perr := recurrence.ParseRule(rruleProp.Value)
		if perr != nil {
			return out, rid, fmt.Errorf("uid %s: RRULE %q: %w", out.ID, rruleProp.Value, perr)
		}
		out.Kind = model.KindRecurring
		out.Start = start
		out.End = end
		out.Rule = &rule
		out.Exceptions = parseExDates(ve, start.Location())

	case allDay:
		out.Kind = model.KindAllDay
		out.Date = start
		last := timecalc.StartOfDay(end).AddDate(0, 0, -1)
		if last.After(start) {
			out.EndDate = mo.Some(last)
		}

	default:
		out.Kind = model.KindTimed
		out.Start = start
		out.End = end
	}

	return out, rid, nil
}

// parseExDates collects every EXDATE value; the property may repeat and each
// one may hold a comma-separated list.
func parseExDates(ve *ical.VEvent, def *time.Location) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		loc := propLocation(p, def)
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, loc); err == nil {
				out = append(out, t)
			} else {
				appLog.Debug("ics exdate skipped", "value", part, "err", err)
			}
		}
	}
	return out
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

// isDateValue reports whether a DTSTART holds a date (VALUE=DATE or no time part).
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// propLocation resolves a TZID parameter, falling back to def.
func propLocation(p *ical.IANAProperty, def *time.Location) *time.Location {
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		if loc, err := time.LoadLocation(tzs[0]); err == nil {
			return loc
		}
	}
	if def == nil {
		return time.Local
	}
	return def
}

// parseICSTime parses a basic ICS date/date-time value. Floating values are
// read in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	// Local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}

	// Date-only (all-day), e.g., 20250101
	return time.ParseInLocation("20060102", v, loc)
}

// ParseFile reads and parses a local .ics file. The source ID defaults to
// the file name without extension.
func ParseFile(path, sourceID string) ([]model.Event, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if sourceID == "" {
		sourceID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return ParseICS(Source{ID: sourceID, URL: "file://" + path}, body)
}
