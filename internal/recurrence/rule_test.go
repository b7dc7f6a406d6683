package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calgrid/internal/model"
)

func TestParseRule(t *testing.T) {
	rule, err := ParseRule("RRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,-1FR;COUNT=4;WKST=SU")
	require.NoError(t, err)

	assert.Equal(t, model.FrequencyWeekly, rule.Frequency)
	assert.Equal(t, 2, rule.Interval)
	assert.Equal(t, 4, rule.Count.MustGet())
	assert.True(t, rule.Until.IsAbsent())
	assert.Equal(t, []model.WeekdayNum{
		{Day: time.Monday},
		{Day: time.Friday, N: -1},
	}, rule.ByDayOfWeek)
	assert.Equal(t, time.Sunday, rule.WeekStart.MustGet())
}

func TestParseRule_Monthly(t *testing.T) {
	rule, err := ParseRule("FREQ=MONTHLY;BYMONTHDAY=1,15;UNTIL=20250601T000000Z")
	require.NoError(t, err)

	assert.Equal(t, model.FrequencyMonthly, rule.Frequency)
	assert.Equal(t, 1, rule.Interval)
	assert.Equal(t, []int{1, 15}, rule.ByMonthDay)
	assert.True(t, rule.Count.IsAbsent())
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), rule.Until.MustGet())
}

func TestParseRule_Rejects(t *testing.T) {
	_, err := ParseRule("FREQ=HOURLY;COUNT=3")
	assert.ErrorIs(t, err, ErrUnsupportedFrequency)

	_, err = ParseRule("FREQ=SOMETIMES")
	assert.Error(t, err)
}

func TestBuildRule_ParsedRuleExpands(t *testing.T) {
	rule, err := ParseRule("FREQ=WEEKLY;BYDAY=MO,WE")
	require.NoError(t, err)

	ev := recurring(rule)
	occ, err := Expand(ev, january())
	require.NoError(t, err)
	assert.Len(t, occ, 9)
}
