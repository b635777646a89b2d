package schedule

import (
	"fmt"
	"time"
)

// YearWeek is an ISO-8601 style calendar week label.
type YearWeek struct {
	Year int    `json:"year"`
	Week int    `json:"week"`
	Code string `json:"code"` // YYWW
}

// WeekOf labels the calendar week containing d. The week belongs to the year
// of its Thursday.
func WeekOf(d time.Time) YearWeek {
	d = civil(d)
	thursday := d.AddDate(0, 0, 4-isoWeekday(d))
	yearStart := time.Date(thursday.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(thursday.Sub(yearStart).Hours() / 24)
	// ceil((days+1)/7)
	week := (days + 1 + 6) / 7
	year := thursday.Year()
	return YearWeek{
		Year: year,
		Week: week,
		Code: fmt.Sprintf("%02d%02d", year%100, week),
	}
}

// WeekCode labels the week of a date string. Input that is not a date comes
// back unchanged, so callers must treat non-numeric codes as unknown.
func WeekCode(date string) string {
	d, ok := ParseDate(date)
	if !ok {
		return date
	}
	return WeekOf(d).Code
}

// WeekCodeAt returns the calendar week code of week-slot i for a plan that
// starts on start. It is empty when start is unset.
func WeekCodeAt(start string, i int) string {
	if start == "" {
		return ""
	}
	d, ok := ParseDate(start)
	if !ok {
		return start
	}
	return WeekOf(addWeeks(d, i)).Code
}

// SlotDate returns the calendar date of week-slot i, or "" when start is not
// a date.
func SlotDate(start string, i int) string {
	d, ok := ParseDate(start)
	if !ok {
		return ""
	}
	return addWeeks(d, i).Format(DateLayout)
}

// CurrentWeekIndex finds the week-slot whose calendar week is today's week.
// It returns -1 when the plan does not overlap the current week.
func CurrentWeekIndex(start string, today time.Time) int {
	if start == "" {
		return -1
	}
	todayCode := WeekOf(today).Code
	for i := 0; i < SlotCount; i++ {
		if WeekCodeAt(start, i) == todayCode {
			return i
		}
	}
	return -1
}
