package schedule

import "time"

// Slot is the rendered view of one week-slot.
type Slot struct {
	Index   int       `json:"index"`
	Code    string    `json:"code"`
	Date    string    `json:"date,omitempty"`
	State   SlotState `json:"state"`
	Mark    Mark      `json:"mark"`
	Reason  *string   `json:"reason,omitempty"`
	Current bool      `json:"current"`
	Past    bool      `json:"past"`
	// Overdue marks a past due slot that still has no attendance recorded.
	Overdue bool `json:"overdue"`
}

// Summary aggregates a grid.
type Summary struct {
	Horizon        int     `json:"horizon"`
	CurrentWeek    int     `json:"current_week"`
	Due            int     `json:"due"`
	Skipped        int     `json:"skipped"`
	Visited        int     `json:"visited"`
	Missed         int     `json:"missed"`
	Overdue        int     `json:"overdue"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// BuildGrid derives every week-slot of a plan as of today.
func BuildGrid(plan Plan, visits Attendance, reasons Reasons, today time.Time) []Slot {
	current := CurrentWeekIndex(plan.Start, today)
	start, hasStart := ParseDate(plan.Start)
	thisMonday := mondayOf(today)
	active := ActiveReasons(visits, reasons)

	slots := make([]Slot, SlotCount)
	for i := range slots {
		slot := Slot{
			Index:   i,
			Code:    WeekCodeAt(plan.Start, i),
			State:   plan.State(i),
			Mark:    visits.At(i),
			Current: i == current,
		}
		if hasStart {
			d := addWeeks(start, i)
			slot.Date = d.Format(DateLayout)
			slot.Past = mondayOf(d).Before(thisMonday)
		}
		if text, ok := active[i]; ok {
			reason := text
			slot.Reason = &reason
		}
		slot.Overdue = slot.Past && slot.State == Due && slot.Mark == MarkUnset
		slots[i] = slot
	}
	return slots
}

// Summarize counts a grid. The attendance rate is visited due slots over due
// slots that are past or current.
func Summarize(plan Plan, slots []Slot) Summary {
	sum := Summary{Horizon: plan.Horizon(), CurrentWeek: -1}
	var elapsedDue, visitedDue int
	for _, s := range slots {
		if s.Current {
			sum.CurrentWeek = s.Index
		}
		switch s.State {
		case Due:
			sum.Due++
			if s.Past || s.Current {
				elapsedDue++
				if s.Mark == MarkVisited {
					visitedDue++
				}
			}
		case Skipped:
			sum.Skipped++
		case OutOfRange:
			continue
		}
		switch s.Mark {
		case MarkVisited:
			sum.Visited++
		case MarkMissed:
			sum.Missed++
		}
		if s.Overdue {
			sum.Overdue++
		}
	}
	if elapsedDue > 0 {
		sum.AttendanceRate = float64(visitedDue) / float64(elapsedDue)
	}
	return sum
}
