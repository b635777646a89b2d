package schedule

import "time"

// InferGraduationDate picks the graduation date of a plan: the calendar date
// of the last visited week-slot, or today when no visit was ever recorded or
// the start date is unknown. The scan covers every stored slot, not only the
// visit horizon.
func InferGraduationDate(start string, visits Attendance, today time.Time) string {
	last := visits.LastVisited()
	if last < 0 {
		return FormatDate(today)
	}
	if date := SlotDate(start, last); date != "" {
		return date
	}
	return FormatDate(today)
}
