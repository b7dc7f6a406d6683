package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"
	"github.com/teambition/rrule-go"

	"calgrid/internal/model"
)

var toRRuleFreq = map[model.Frequency]rrule.Frequency{
	model.FrequencyDaily:   rrule.DAILY,
	model.FrequencyWeekly:  rrule.WEEKLY,
	model.FrequencyMonthly: rrule.MONTHLY,
	model.FrequencyYearly:  rrule.YEARLY,
}

var fromRRuleFreq = map[rrule.Frequency]model.Frequency{
	rrule.DAILY:   model.FrequencyDaily,
	rrule.WEEKLY:  model.FrequencyWeekly,
	rrule.MONTHLY: model.FrequencyMonthly,
	rrule.YEARLY:  model.FrequencyYearly,
}

// rrule numbers weekdays from Monday; index by time.Weekday instead.
var rruleWeekdays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// BuildRule turns a rule anchored at dtstart into an rrule-go generator.
// rrule-go truncates the anchor and Until to whole seconds.
func BuildRule(dtstart time.Time, rule model.RecurrenceRule) (*rrule.RRule, error) {
	freq, ok := toRRuleFreq[rule.Frequency]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFrequency, rule.Frequency)
	}

	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	opt := rrule.ROption{
		Freq:       freq,
		Dtstart:    dtstart,
		Interval:   interval,
		Count:      rule.Count.OrEmpty(),
		Until:      rule.Until.OrEmpty(),
		Bymonth:    rule.ByMonth,
		Bymonthday: rule.ByMonthDay,
		Bysetpos:   rule.BySetPosition,
		Wkst:       rruleWeekday(model.WeekdayNum{Day: rule.WeekStart.OrElse(time.Monday)}),
	}
	for _, wd := range rule.ByDayOfWeek {
		opt.Byweekday = append(opt.Byweekday, rruleWeekday(wd))
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("build rrule: %w", err)
	}
	return r, nil
}

func rruleWeekday(wd model.WeekdayNum) rrule.Weekday {
	day := rruleWeekdays[wd.Day%7]
	if wd.N != 0 {
		return day.Nth(wd.N)
	}
	return day
}

// ParseRule parses an RFC 5545 RRULE value ("FREQ=WEEKLY;BYDAY=MO,WE") into
// a RecurrenceRule. A leading "RRULE:" is accepted. Sub-daily frequencies are
// rejected with ErrUnsupportedFrequency.
func ParseRule(value string) (model.RecurrenceRule, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "RRULE:")

	opt, err := rrule.StrToROptionInLocation(value, time.Local)
	if err != nil {
		return model.RecurrenceRule{}, fmt.Errorf("parse rrule %q: %w", value, err)
	}
	return RuleFromOption(*opt)
}

// RuleFromOption converts parsed rrule options into a RecurrenceRule.
func RuleFromOption(opt rrule.ROption) (model.RecurrenceRule, error) {
	freq, ok := fromRRuleFreq[opt.Freq]
	if !ok {
		return model.RecurrenceRule{}, fmt.Errorf("%w: %s", ErrUnsupportedFrequency, opt.Freq)
	}

	rule := model.RecurrenceRule{
		Frequency:     freq,
		Interval:      opt.Interval,
		ByMonth:       opt.Bymonth,
		ByMonthDay:    opt.Bymonthday,
		BySetPosition: opt.Bysetpos,
	}
	if rule.Interval < 1 {
		rule.Interval = 1
	}
	if opt.Count > 0 {
		rule.Count = mo.Some(opt.Count)
	}
	if !opt.Until.IsZero() {
		rule.Until = mo.Some(opt.Until)
	}
	for _, wd := range opt.Byweekday {
		rule.ByDayOfWeek = append(rule.ByDayOfWeek, model.WeekdayNum{
			Day: fromRRuleWeekday(wd.Day()),
			N:   wd.N(),
		})
	}
	if wkst := opt.Wkst.Day(); wkst != 0 {
		rule.WeekStart = mo.Some(fromRRuleWeekday(wkst))
	}
	return rule, nil
}

// fromRRuleWeekday maps rrule's Monday-based index to time.Weekday.
func fromRRuleWeekday(d int) time.Weekday {
	return time.Weekday((d + 1) % 7)
}

// maxMonthDays is the longest each month can be, leap years included.
var maxMonthDays = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// canMatch reports whether the BYMONTH / BYMONTHDAY combination of rule
// names at least one real date, e.g. BYMONTH=2;BYMONTHDAY=30 does not.
func canMatch(rule model.RecurrenceRule) bool {
	if len(rule.ByMonthDay) == 0 {
		return true
	}
	months := rule.ByMonth
	if len(months) == 0 {
		months = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	}
	for _, m := range months {
		if m < 1 || m > 12 {
			continue
		}
		for _, d := range rule.ByMonthDay {
			if d < 0 {
				d = -d
			}
			if d >= 1 && d <= maxMonthDays[m] {
				return true
			}
		}
	}
	return false
}
