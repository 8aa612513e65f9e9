package generic_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vacation-engine/generic"
)

func calendar(t *testing.T, dates ...string) generic.HolidayCalendar {
	t.Helper()
	holidays, err := generic.ParseHolidayList(dates)
	require.NoError(t, err)
	return generic.NewStaticHolidayCalendar(holidays)
}

// =============================================================================
// BUSINESS-DAY COUNTER TESTS
// =============================================================================

func TestCountBusinessDays_SingleDay(t *testing.T) {
	cal := calendar(t, "16/09/25")

	monday := date(2025, 6, 2)
	saturday := date(2025, 6, 7)
	holiday := date(2025, 9, 16)

	assert.Equal(t, 1, generic.CountBusinessDays(monday, monday, cal))
	assert.Equal(t, 0, generic.CountBusinessDays(saturday, saturday, cal))
	assert.Equal(t, 0, generic.CountBusinessDays(holiday, holiday, cal))
}

func TestCountBusinessDays_WeekWithHoliday(t *testing.T) {
	// Mon 15 - Sun 21 September 2025, Tuesday 16 is a holiday
	cal := calendar(t, "16/09/25")

	got := generic.CountBusinessDays(date(2025, 9, 15), date(2025, 9, 21), cal)

	assert.Equal(t, 4, got)
}

func TestCountBusinessDays_IgnoresTimeOfDay(t *testing.T) {
	start := generic.TimePoint{Time: time.Date(2025, 6, 2, 23, 30, 0, 0, time.UTC)}
	end := generic.TimePoint{Time: time.Date(2025, 6, 6, 0, 5, 0, 0, time.UTC)}

	assert.Equal(t, 5, generic.CountBusinessDays(start, end, generic.NoHolidays{}))
}

func TestCountBusinessDays_EndBeforeStart(t *testing.T) {
	assert.Equal(t, 0, generic.CountBusinessDays(date(2025, 6, 6), date(2025, 6, 2), nil))
}

// =============================================================================
// HOLIDAY PARSING TESTS
// =============================================================================

func TestParseHolidayDate(t *testing.T) {
	tests := []struct {
		in      string
		want    generic.TimePoint
		wantErr bool
	}{
		{in: "01/01/25", want: date(2025, 1, 1)},
		{in: "24/12/28", want: date(2028, 12, 24)},
		{in: " 16/09/2026 ", want: date(2026, 9, 16)},
		{in: "31/02/25", wantErr: true},
		{in: "2025-01-01", wantErr: true},
		{in: "aa/01/25", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := generic.ParseHolidayDate(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, generic.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s", got)
		})
	}
}

func TestParseHolidayYAML(t *testing.T) {
	doc := []byte(`
holidays:
  - date: "16/09/25"
    name: Independence Day
  - date: "25/12/25"
    name: Christmas
`)

	holidays, err := generic.ParseHolidayYAML(doc)
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, "Independence Day", holidays[0].Name)

	cal := generic.NewStaticHolidayCalendar(holidays)
	assert.Equal(t, 2, cal.Len())
	assert.True(t, cal.IsHoliday(date(2025, 12, 25)))
	assert.False(t, cal.IsHoliday(date(2026, 12, 25)))
	assert.True(t, cal.Holidays()[0].Date.Equal(date(2025, 9, 16)))
}

func TestParseHolidayYAML_BadDate(t *testing.T) {
	_, err := generic.ParseHolidayYAML([]byte("holidays:\n  - date: \"99/99/25\"\n"))
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
}

func TestMonthsBetween(t *testing.T) {
	hire := date(2024, 1, 15)

	assert.Equal(t, 5, generic.MonthsBetween(hire, date(2024, 7, 14)))
	assert.Equal(t, 6, generic.MonthsBetween(hire, date(2024, 7, 15)))
	assert.Equal(t, 0, generic.MonthsBetween(hire, date(2023, 12, 1)))
}
