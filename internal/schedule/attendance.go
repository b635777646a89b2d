package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Mark is the attendance state of one week-slot.
type Mark int8

const (
	// MarkUnset means no attendance has been recorded yet.
	MarkUnset Mark = iota
	// MarkVisited means the patient came in that week.
	MarkVisited
	// MarkMissed means the patient did not come in.
	MarkMissed
)

func (m Mark) String() string {
	switch m {
	case MarkVisited:
		return "visited"
	case MarkMissed:
		return "missed"
	default:
		return "unset"
	}
}

// ParseMark reads "unset", "visited" or "missed".
func ParseMark(s string) (Mark, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unset", "null":
		return MarkUnset, nil
	case "visited", "true":
		return MarkVisited, nil
	case "missed", "false":
		return MarkMissed, nil
	}
	return MarkUnset, fmt.Errorf("schedule: unknown attendance mark %q", s)
}

// MarshalJSON stores marks the way the board always has: null, true or false.
func (m Mark) MarshalJSON() ([]byte, error) {
	switch m {
	case MarkVisited:
		return []byte("true"), nil
	case MarkMissed:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null/true/false and the mark names.
func (m *Mark) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null":
		*m = MarkUnset
		return nil
	case "true":
		*m = MarkVisited
		return nil
	case "false":
		*m = MarkMissed
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("schedule: invalid attendance mark %s", data)
	}
	parsed, err := ParseMark(name)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Attendance holds one mark per week-slot.
type Attendance []Mark

// NewAttendance returns SlotCount unset marks.
func NewAttendance() Attendance {
	return make(Attendance, SlotCount)
}

// Normalize returns a copy padded or truncated to SlotCount, so arrays stored
// under a shorter horizon keep working.
func (a Attendance) Normalize() Attendance {
	out := NewAttendance()
	copy(out, a)
	return out
}

// At returns the mark of slot i, unset when i is outside the array.
func (a Attendance) At(i int) Mark {
	if i < 0 || i >= len(a) {
		return MarkUnset
	}
	return a[i]
}

// LastVisited returns the highest visited slot over the whole array, or -1.
func (a Attendance) LastVisited() int {
	for i := len(a) - 1; i >= 0; i-- {
		if a[i] == MarkVisited {
			return i
		}
	}
	return -1
}

// Reasons maps week-slot indices to missed-visit reasons.
type Reasons map[int]string

// Clone returns an independent copy; a nil map clones to an empty one.
func (r Reasons) Clone() Reasons {
	out := make(Reasons, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// SetMark records mark m for slot i and returns updated copies of both
// collections. Marking a slot missed always opens a reason entry: a supplied
// reason is stored, otherwise an existing reason is kept or an empty one is
// created. Other marks never remove reasons, so flipping a slot back to missed
// restores what was written before. Callers guarantee 0 <= i < SlotCount.
func SetMark(visits Attendance, reasons Reasons, i int, m Mark, reason *string) (Attendance, Reasons) {
	outVisits := visits.Normalize()
	outReasons := reasons.Clone()
	outVisits[i] = m
	if m == MarkMissed {
		switch {
		case reason != nil:
			outReasons[i] = *reason
		default:
			if _, ok := outReasons[i]; !ok {
				outReasons[i] = ""
			}
		}
	}
	return outVisits, outReasons
}

// ClearReason removes the reason stored for slot i.
func ClearReason(reasons Reasons, i int) Reasons {
	out := reasons.Clone()
	delete(out, i)
	return out
}

// ActiveReasons returns the reasons of slots that are currently missed.
// Retained reasons of slots flipped to another mark are left out.
func ActiveReasons(visits Attendance, reasons Reasons) Reasons {
	out := make(Reasons)
	for i, text := range reasons {
		if visits.At(i) == MarkMissed {
			out[i] = text
		}
	}
	return out
}
