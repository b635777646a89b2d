// Package schedule derives the weekly visit schedule of a treatment plan.
// It maps week-slots to calendar weeks, applies the visit cadence and the
// manual skip overrides, reconciles attendance marks and infers graduation
// dates. Everything here is pure: callers pass "today" explicitly.
package schedule

import (
	"strings"
	"time"
)

const (
	// MaxMonths is the longest visit horizon a plan can configure.
	MaxMonths = 9
	// WeeksPerMonth is the number of week-slots per month of treatment.
	WeeksPerMonth = 4
	// SlotCount is the number of week-slots stored per patient.
	SlotCount = MaxMonths * WeeksPerMonth

	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
)

// ParseDate reads a calendar date. Timestamps are accepted and truncated to
// their date part. The boolean is false for empty or unparseable input.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(DateLayout) {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, s[:len(DateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// FormatDate renders the calendar date of t.
func FormatDate(t time.Time) string {
	return civil(t).Format(DateLayout)
}

// civil drops the clock and location of t while keeping its calendar date.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// addWeeks returns the calendar date i weeks after d.
func addWeeks(d time.Time, i int) time.Time {
	return civil(d).AddDate(0, 0, 7*i)
}

// isoWeekday maps Sunday to 7 so the week runs Monday=1..Sunday=7.
func isoWeekday(d time.Time) int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// mondayOf returns the Monday that starts the week containing d.
func mondayOf(d time.Time) time.Time {
	d = civil(d)
	return d.AddDate(0, 0, 1-isoWeekday(d))
}
