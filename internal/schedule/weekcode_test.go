package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, ok := ParseDate(s)
	require.True(t, ok, "bad test date %q", s)
	return d
}

func TestWeekOf(t *testing.T) {
	tests := []struct {
		date string
		year int
		week int
		code string
	}{
		{"2024-01-01", 2024, 1, "2401"},
		{"2024-12-30", 2025, 1, "2501"},
		{"2021-01-03", 2020, 53, "2053"},
		{"2020-12-31", 2020, 53, "2053"},
		{"2027-01-01", 2026, 53, "2653"},
		{"2026-10-17", 2026, 42, "2642"},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			yw := WeekOf(date(t, tt.date))
			assert.Equal(t, tt.year, yw.Year)
			assert.Equal(t, tt.week, yw.Week)
			assert.Equal(t, tt.code, yw.Code)
		})
	}
}

func TestWeekOfMatchesISOWeek(t *testing.T) {
	d := time.Date(2019, time.December, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3*366; i++ {
		day := d.AddDate(0, 0, i)
		year, week := day.ISOWeek()
		want := fmt.Sprintf("%02d%02d", year%100, week)
		require.Equal(t, want, WeekOf(day).Code, "date %s", day.Format(DateLayout))
	}
}

func TestWeekCodeSameForWholeWeek(t *testing.T) {
	monday := date(t, "2025-03-10")
	want := WeekOf(monday).Code
	for i := 1; i < 7; i++ {
		assert.Equal(t, want, WeekOf(monday.AddDate(0, 0, i)).Code)
	}
	assert.NotEqual(t, want, WeekOf(monday.AddDate(0, 0, 7)).Code)
}

func TestWeekOfIgnoresClockAndZone(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	late := time.Date(2024, time.January, 7, 23, 59, 0, 0, seoul) // Sunday
	assert.Equal(t, "2401", WeekOf(late).Code)
}

func TestWeekCodeEchoesUnparseableInput(t *testing.T) {
	assert.Equal(t, "2401", WeekCode("2024-01-03"))
	assert.Equal(t, "2401", WeekCode("2024-01-03T10:00:00Z"))
	assert.Equal(t, "not-a-date", WeekCode("not-a-date"))
	assert.Equal(t, "", WeekCode(""))
}

func TestWeekCodeAt(t *testing.T) {
	assert.Equal(t, "", WeekCodeAt("", 3))
	assert.Equal(t, "2401", WeekCodeAt("2024-01-01", 0))
	assert.Equal(t, "2404", WeekCodeAt("2024-01-01", 3))
	assert.Equal(t, "2501", WeekCodeAt("2024-12-02", 4))
	assert.Equal(t, "garbage", WeekCodeAt("garbage", 1))
}

func TestSlotDate(t *testing.T) {
	assert.Equal(t, "2024-01-22", SlotDate("2024-01-01", 3))
	assert.Equal(t, "", SlotDate("", 3))
	assert.Equal(t, "", SlotDate("soon", 3))
}

func TestCurrentWeekIndex(t *testing.T) {
	tests := []struct {
		name  string
		start string
		today string
		want  int
	}{
		{"first week", "2024-01-01", "2024-01-05", 0},
		{"fourth week", "2024-01-01", "2024-01-24", 3},
		{"mid-week start", "2024-01-03", "2024-01-01", 0},
		{"start next month", "2024-02-01", "2024-01-10", -1},
		{"horizon passed", "2024-01-01", "2024-10-01", -1},
		{"last slot", "2024-01-01", "2024-09-02", 35},
		{"unset start", "", "2024-01-10", -1},
		{"unparseable start", "sometime", "2024-01-10", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrentWeekIndex(tt.start, date(t, tt.today)))
		})
	}
}

func TestCurrentWeekIndexAgreesWithWeekCodes(t *testing.T) {
	start := "2025-11-19"
	today := date(t, "2026-02-11")
	i := CurrentWeekIndex(start, today)
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, WeekOf(today).Code, WeekCodeAt(start, i))
	for j := 0; j < i; j++ {
		assert.NotEqual(t, WeekOf(today).Code, WeekCodeAt(start, j))
	}
}
