package schedule

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultPeriodMonths is the fallback for missing period fields.
const DefaultPeriodMonths = 3

var (
	firstNumber  = regexp.MustCompile(`\d+`)
	legacyMonths = regexp.MustCompile(`(\d+)개월`)
	legacyWeeks  = regexp.MustCompile(`(\d+)주`)
	legacyVisits = regexp.MustCompile(`(\d+)회`)
)

// ParseMonths normalizes a stored period to months. Numbers are taken as
// months; text yields its first embedded integer. Absent values and text
// without digits fall back to fallback. The empty string is what
// FormatLegacyPeriod writes for an all-zero period, so it reads as 0.
func ParseMonths(v any, fallback int) int {
	switch t := v.(type) {
	case nil:
		return fallback
	case int:
		return t
	case int8:
		return int(t)
	case int16:
		return int(t)
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float32:
		return floatMonths(float64(t), fallback)
	case float64:
		return floatMonths(t, fallback)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
		return ParseMonths(t.String(), fallback)
	case *string:
		if t == nil {
			return fallback
		}
		return ParseMonths(*t, fallback)
	case []byte:
		return ParseMonths(string(t), fallback)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		m := firstNumber.FindString(s)
		if m == "" {
			return fallback
		}
		n, err := strconv.Atoi(m)
		if err != nil {
			return fallback
		}
		return n
	}
	return fallback
}

// LegacyPeriod is the composite months/weeks/visits descriptor older records
// stored as free text.
type LegacyPeriod struct {
	Months int
	Weeks  int
	Visits int
}

// floatMonths truncates f, falling back for NaN, infinities and values
// outside the int32 range.
func floatMonths(f float64, fallback int) int {
	if math.IsNaN(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return fallback
	}
	return int(f)
}

// FormatLegacyPeriod composes "{m}개월 {w}주에 {v}회". All zeros give "".
func FormatLegacyPeriod(months, weeks, visits int) string {
	if months == 0 && weeks == 0 && visits == 0 {
		return ""
	}
	return fmt.Sprintf("%d개월 %d주에 %d회", months, weeks, visits)
}

// ParseLegacyPeriod extracts each component independently; missing ones are 0.
func ParseLegacyPeriod(s string) LegacyPeriod {
	return LegacyPeriod{
		Months: submatchInt(legacyMonths, s),
		Weeks:  submatchInt(legacyWeeks, s),
		Visits: submatchInt(legacyVisits, s),
	}
}

func submatchInt(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// HerbalMonthActive reports whether herbal month monthIndex (0-based) lies
// inside the prescription horizon.
func HerbalMonthActive(monthIndex, prescriptionPeriod int) bool {
	return monthIndex >= 0 && monthIndex < prescriptionPeriod
}
