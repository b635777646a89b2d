package patients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/herbal-board/internal/schedule"
)

// LegacyRecord is a patient as the browser board kept it in local storage:
// camelCase keys, numeric ids, and periods that may be numbers or text.
type LegacyRecord struct {
	ID                 json.RawMessage     `json:"id"`
	Name               string              `json:"name"`
	ChartNumber        string              `json:"chartNumber"`
	Doctor             string              `json:"doctor"`
	Contact            string              `json:"contact"`
	Symptoms           string              `json:"symptoms"`
	FirstVisitDate     string              `json:"firstVisitDate"`
	TreatmentStartDate string              `json:"treatmentStartDate"`
	TreatmentPeriod    any                 `json:"treatmentPeriod"`
	PrescriptionPeriod any                 `json:"prescriptionPeriod"`
	VisitPeriod        any                 `json:"visitPeriod"`
	VisitInterval      string              `json:"visitInterval"`
	HerbalType         string              `json:"herbalType"`
	HasHerbal          *bool               `json:"hasHerbal"`
	MedicineOnly       bool                `json:"medicineOnly"`
	WeeklyVisits       schedule.Attendance `json:"weeklyVisits"`
	SkipWeeks          []int               `json:"skipWeeks"`
	MissedReasons      map[string]string   `json:"missedReasons"`
	Herbal             []HerbalRecord      `json:"herbal"`
	Status             string              `json:"status"`
	GraduationDate     string              `json:"graduationDate"`
	Review             string              `json:"review"`
	CreatedAt          string              `json:"createdAt"`
}

// DecodeLegacy reads a JSON array of legacy records.
func DecodeLegacy(r io.Reader) ([]LegacyRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var records []LegacyRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("patients: decode legacy dump: %w", err)
	}
	return records, nil
}

// Patient converts the record. A missing id gets a fresh one; periods are
// normalized to months with the three-month fallback; a missing or unreadable
// interval becomes weekly.
func (r LegacyRecord) Patient(owner string, now time.Time) (*Patient, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	cadence, _ := schedule.ParseCadence(r.VisitInterval)
	p := &Patient{
		ID:                 legacyID(r.ID),
		OwnerKey:           owner,
		Name:               name,
		ChartNumber:        r.ChartNumber,
		Doctor:             r.Doctor,
		Contact:            r.Contact,
		Symptoms:           r.Symptoms,
		FirstVisitDate:     r.FirstVisitDate,
		TreatmentStartDate: r.TreatmentStartDate,
		TreatmentPeriod:    clamp(schedule.ParseMonths(r.TreatmentPeriod, schedule.DefaultPeriodMonths), MaxTreatmentMonths),
		PrescriptionPeriod: clamp(schedule.ParseMonths(r.PrescriptionPeriod, schedule.DefaultPeriodMonths), MaxPrescriptionMonths),
		VisitPeriod:        clamp(schedule.ParseMonths(r.VisitPeriod, schedule.DefaultPeriodMonths), schedule.MaxMonths),
		VisitInterval:      cadence,
		HerbalType:         legacyHerbalType(r.HerbalType, r.HasHerbal),
		MedicineOnly:       r.MedicineOnly,
		WeeklyVisits:       legacyAttendance(r.WeeklyVisits),
		SkipWeeks:          schedule.NewWeekSet(inRange(r.SkipWeeks)...),
		MissedReasons:      legacyReasons(r.MissedReasons),
		Herbal:             r.Herbal,
		Status:             ParseStatus(r.Status),
		GraduationDate:     r.GraduationDate,
		Review:             ParseReview(r.Review),
		CreatedAt:          legacyTime(r.CreatedAt, now),
		UpdatedAt:          now.UTC(),
	}
	p.Normalize()
	return p, nil
}

func legacyID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return NewID()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
		return NewID()
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return NewID()
}

// legacyHerbalType resolves the herbal form. Records from before the form was
// recorded only carry hasHerbal; those default to decoction unless it is false.
func legacyHerbalType(s string, hasHerbal *bool) HerbalType {
	if t := ParseHerbalType(s); t != HerbalNone {
		return t
	}
	if strings.TrimSpace(s) == "" && (hasHerbal == nil || *hasHerbal) {
		return HerbalDecoction
	}
	return HerbalNone
}

// legacyAttendance reads the weekly checkboxes. Arrays shorter than the slot
// count come from the two-state board, where false only meant unchecked.
func legacyAttendance(in schedule.Attendance) schedule.Attendance {
	out := in.Normalize()
	if len(in) >= schedule.SlotCount {
		return out
	}
	for i, m := range out {
		if m == schedule.MarkMissed {
			out[i] = schedule.MarkUnset
		}
	}
	return out
}

func legacyReasons(in map[string]string) schedule.Reasons {
	out := schedule.Reasons{}
	for k, v := range in {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= schedule.SlotCount {
			continue
		}
		out[i] = v
	}
	return out
}

func legacyTime(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	if d, ok := schedule.ParseDate(s); ok {
		return d
	}
	return fallback.UTC()
}

func inRange(weeks []int) []int {
	out := weeks[:0:0]
	for _, w := range weeks {
		if w >= 0 && w < schedule.SlotCount {
			out = append(out, w)
		}
	}
	return out
}

func clamp(v, limit int) int {
	switch {
	case v < 0:
		return 0
	case v > limit:
		return limit
	}
	return v
}
