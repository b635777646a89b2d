package schedule

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SlotState is the effective status of a week-slot after overrides.
type SlotState int

const (
	// OutOfRange slots lie beyond the visit horizon and are never interpreted.
	OutOfRange SlotState = iota
	// Due slots expect a visit.
	Due
	// Skipped slots expect no visit.
	Skipped
)

var slotStateNames = map[SlotState]string{
	OutOfRange: "out_of_range",
	Due:        "due",
	Skipped:    "skipped",
}

func (s SlotState) String() string {
	if name, ok := slotStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SlotState(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s SlotState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// WeekSet is a set of week-slot indices. It encodes as a sorted JSON array.
type WeekSet map[int]struct{}

// NewWeekSet builds a set from indices.
func NewWeekSet(weeks ...int) WeekSet {
	s := make(WeekSet, len(weeks))
	for _, w := range weeks {
		s[w] = struct{}{}
	}
	return s
}

// Has reports membership; a nil set is empty.
func (s WeekSet) Has(week int) bool {
	_, ok := s[week]
	return ok
}

// Clone returns an independent copy.
func (s WeekSet) Clone() WeekSet {
	out := make(WeekSet, len(s))
	for w := range s {
		out[w] = struct{}{}
	}
	return out
}

// Toggle returns a copy with week's membership flipped.
func (s WeekSet) Toggle(week int) WeekSet {
	out := s.Clone()
	if out.Has(week) {
		delete(out, week)
	} else {
		out[week] = struct{}{}
	}
	return out
}

// Sorted lists the members in ascending order.
func (s WeekSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}

// MarshalJSON implements json.Marshaler.
func (s WeekSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *WeekSet) UnmarshalJSON(data []byte) error {
	var weeks []int
	if err := json.Unmarshal(data, &weeks); err != nil {
		return err
	}
	*s = NewWeekSet(weeks...)
	return nil
}

// Plan is the part of a patient's treatment configuration that drives the
// visit schedule.
type Plan struct {
	Start       string // treatment start date, "" when unset
	VisitPeriod int    // months of in-clinic visits
	Cadence     Cadence
	Skips       WeekSet // slots whose cadence default is inverted
}

// Horizon is the number of in-range week-slots.
func (p Plan) Horizon() int {
	h := p.VisitPeriod * WeeksPerMonth
	switch {
	case h < 0:
		return 0
	case h > SlotCount:
		return SlotCount
	}
	return h
}

// InRange reports whether week-slot i is inside the visit horizon.
func (p Plan) InRange(i int) bool {
	return i >= 0 && i < p.Horizon()
}

// State combines the cadence default with the skip override. Membership in
// Skips inverts the default: a normally due week becomes skipped and a
// normally skipped week becomes due.
func (p Plan) State(i int) SlotState {
	if !p.InRange(i) {
		return OutOfRange
	}
	dueByDefault := p.Cadence.DueByDefault(i)
	overridden := p.Skips.Has(i)
	if dueByDefault != overridden {
		return Due
	}
	return Skipped
}

// IsDue reports whether week-slot i expects a visit.
func (p Plan) IsDue(i int) bool {
	return p.State(i) == Due
}

// ToggleSkip returns a copy of the plan with the override at i flipped.
// Toggling twice restores the original state.
func (p Plan) ToggleSkip(i int) Plan {
	p.Skips = p.Skips.Toggle(i)
	return p
}

// DueWeeks lists the in-range slots that expect a visit.
func (p Plan) DueWeeks() []int {
	var out []int
	for i := 0; i < p.Horizon(); i++ {
		if p.IsDue(i) {
			out = append(out, i)
		}
	}
	return out
}
