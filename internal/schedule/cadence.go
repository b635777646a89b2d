package schedule

import (
	"fmt"
	"regexp"
	"strconv"
)

// Cadence says that within every Weeks-week cycle, Visits of those weeks are
// expected visits. "2 weeks / 1 visit" means attending every other week.
type Cadence struct {
	Weeks  int `json:"weeks"`
	Visits int `json:"visits"`
}

// DefaultCadence is one visit every week.
var DefaultCadence = Cadence{Weeks: 1, Visits: 1}

var cadencePattern = regexp.MustCompile(`(\d+)\s*주\D*?(\d+)\s*회`)

// Valid reports whether 1 <= Visits <= Weeks.
func (c Cadence) Valid() bool {
	return c.Weeks >= 1 && c.Visits >= 1 && c.Visits <= c.Weeks
}

// Normalize replaces an invalid cadence with DefaultCadence.
func (c Cadence) Normalize() Cadence {
	if !c.Valid() {
		return DefaultCadence
	}
	return c
}

// DueByDefault reports whether week-slot i is an expected visit before any
// manual override. Visits are front-loaded in each cycle, so 4 weeks / 2 visits
// makes slots 0,1,4,5,8,9,... due.
func (c Cadence) DueByDefault(i int) bool {
	c = c.Normalize()
	return i%c.Weeks < c.Visits
}

// String renders the stored descriptor, e.g. "2주에 1회".
func (c Cadence) String() string {
	return fmt.Sprintf("%d주에 %d회", c.Weeks, c.Visits)
}

// ParseCadence reads a "{weeks}주에 {visits}회" descriptor. The boolean is
// false, and DefaultCadence is returned, when the text does not describe a
// valid cadence.
func ParseCadence(s string) (Cadence, bool) {
	m := cadencePattern.FindStringSubmatch(s)
	if m == nil {
		return DefaultCadence, false
	}
	weeks, _ := strconv.Atoi(m[1])
	visits, _ := strconv.Atoi(m[2])
	c := Cadence{Weeks: weeks, Visits: visits}
	if !c.Valid() {
		return DefaultCadence, false
	}
	return c, true
}
