// Package patients holds the patient record of the treatment board, its
// registration and patch rules, list filtering and the repositories that
// persist it.
package patients

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/herbal-board/internal/schedule"
)

// DefaultOwnerKey is the board every record belongs to unless configured otherwise.
const DefaultOwnerKey = "bonhyang_clinic_shared"

const (
	// MaxTreatmentMonths bounds treatment_period.
	MaxTreatmentMonths = schedule.MaxMonths
	// MaxPrescriptionMonths bounds prescription_period and the herbal log.
	MaxPrescriptionMonths = 6
	// HerbalMonths is the number of herbal log entries per patient.
	HerbalMonths = MaxPrescriptionMonths
	// MaxCadenceWeeks bounds the cycle length of a visit interval.
	MaxCadenceWeeks = 4
)

// Rooms are the consultation rooms a patient can be assigned to.
var Rooms = []string{"1진료실", "2진료실", "3진료실"}

// Status is the outcome bucket of a patient.
type Status string

const (
	StatusActive    Status = "active"
	StatusGraduated Status = "graduated"
	StatusDropout   Status = "dropout"
	StatusOther     Status = "other"
)

// Statuses lists every status in tab order.
var Statuses = []Status{StatusActive, StatusGraduated, StatusDropout, StatusOther}

// ParseStatus maps stored values, including the older "completed", onto a
// Status. Empty means active; unknown values land in other.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active":
		return StatusActive
	case "graduated", "completed":
		return StatusGraduated
	case "dropout":
		return StatusDropout
	default:
		return StatusOther
	}
}

// HerbalType is the form of the herbal prescription.
type HerbalType string

const (
	HerbalNone      HerbalType = "none"
	HerbalDecoction HerbalType = "decoction"
	HerbalPill      HerbalType = "pill"
)

// ParseHerbalType accepts the English names and the Korean labels.
func ParseHerbalType(s string) HerbalType {
	switch strings.TrimSpace(s) {
	case "decoction", "탕약":
		return HerbalDecoction
	case "pill", "환약":
		return HerbalPill
	default:
		return HerbalNone
	}
}

// Review records which kind of review the patient left.
type Review string

const (
	ReviewNone         Review = ""
	ReviewWritten      Review = "written"
	ReviewVideoPublic  Review = "video_public"
	ReviewVideoPrivate Review = "video_private"
)

// ParseReview maps unknown values to ReviewNone.
func ParseReview(s string) Review {
	switch r := Review(strings.TrimSpace(s)); r {
	case ReviewWritten, ReviewVideoPublic, ReviewVideoPrivate:
		return r
	}
	return ReviewNone
}

// HerbalRecord is one month of the herbal log.
type HerbalRecord struct {
	Month      int    `json:"month"`
	Date       string `json:"date"`
	TongueExam bool   `json:"tongue_exam"`
	DeviceFit  bool   `json:"device_fit"`
}

// UnmarshalJSON also reads the older seoljin/omnifit keys.
func (h *HerbalRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Month      int    `json:"month"`
		Date       string `json:"date"`
		TongueExam *bool  `json:"tongue_exam"`
		DeviceFit  *bool  `json:"device_fit"`
		Seoljin    *bool  `json:"seoljin"`
		Omnifit    *bool  `json:"omnifit"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*h = HerbalRecord{Month: raw.Month, Date: raw.Date}
	h.TongueExam = firstBool(raw.TongueExam, raw.Seoljin)
	h.DeviceFit = firstBool(raw.DeviceFit, raw.Omnifit)
	return nil
}

func firstBool(values ...*bool) bool {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return false
}

// DefaultHerbal returns an empty herbal log.
func DefaultHerbal() []HerbalRecord {
	out := make([]HerbalRecord, HerbalMonths)
	for i := range out {
		out[i].Month = i + 1
	}
	return out
}

// Patient is a row of the treatment board.
type Patient struct {
	ID       string `json:"id"`
	OwnerKey string `json:"owner_key"`

	Name           string `json:"name"`
	ChartNumber    string `json:"chart_number"`
	Doctor         string `json:"doctor"`
	Contact        string `json:"contact"`
	Symptoms       string `json:"symptoms"`
	FirstVisitDate string `json:"first_visit_date"`

	TreatmentStartDate string           `json:"treatment_start_date"`
	TreatmentPeriod    int              `json:"treatment_period"`
	PrescriptionPeriod int              `json:"prescription_period"`
	VisitPeriod        int              `json:"visit_period"`
	VisitInterval      schedule.Cadence `json:"visit_interval"`
	HerbalType         HerbalType       `json:"herbal_type"`
	MedicineOnly       bool             `json:"medicine_only"`

	WeeklyVisits  schedule.Attendance `json:"weekly_visits"`
	SkipWeeks     schedule.WeekSet    `json:"skip_weeks"`
	MissedReasons schedule.Reasons    `json:"missed_reasons"`
	Herbal        []HerbalRecord      `json:"herbal"`

	Status         Status `json:"status"`
	GraduationDate string `json:"graduation_date"`
	Review         Review `json:"review"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewID returns a time-ordered identifier for a new record.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Plan extracts the scheduling inputs of the patient.
func (p *Patient) Plan() schedule.Plan {
	return schedule.Plan{
		Start:       p.TreatmentStartDate,
		VisitPeriod: p.VisitPeriod,
		Cadence:     p.VisitInterval,
		Skips:       p.SkipWeeks,
	}
}

// Grid renders the week-slots of the patient as of today.
func (p *Patient) Grid(today time.Time) []schedule.Slot {
	return schedule.BuildGrid(p.Plan(), p.WeeklyVisits, p.MissedReasons, today)
}

// HerbalMonthActive reports whether herbal month i can be filled in.
func (p *Patient) HerbalMonthActive(i int) bool {
	if p.HerbalType == HerbalNone || p.HerbalType == "" {
		return false
	}
	return schedule.HerbalMonthActive(i, p.PrescriptionPeriod)
}

// Normalize fills in defaults for missing collections, pads attendance to the
// slot count and repairs out-of-range values read from storage.
func (p *Patient) Normalize() {
	p.WeeklyVisits = p.WeeklyVisits.Normalize()
	if p.SkipWeeks == nil {
		p.SkipWeeks = schedule.NewWeekSet()
	}
	if p.MissedReasons == nil {
		p.MissedReasons = schedule.Reasons{}
	}
	p.Herbal = normalizeHerbal(p.Herbal)
	p.VisitInterval = normalizeCadence(p.VisitInterval)
	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.HerbalType == "" {
		p.HerbalType = HerbalNone
	}
	if p.OwnerKey == "" {
		p.OwnerKey = DefaultOwnerKey
	}
}

func normalizeHerbal(in []HerbalRecord) []HerbalRecord {
	out := DefaultHerbal()
	for i := range out {
		if i < len(in) {
			out[i] = in[i]
			out[i].Month = i + 1
		}
	}
	return out
}

// ValidCadence reports whether a visit interval can be stored.
func ValidCadence(c schedule.Cadence) bool {
	return c.Valid() && c.Weeks <= MaxCadenceWeeks
}

func normalizeCadence(c schedule.Cadence) schedule.Cadence {
	if !ValidCadence(c) {
		return schedule.DefaultCadence
	}
	return c
}

// Clone returns a deep copy.
func (p *Patient) Clone() *Patient {
	if p == nil {
		return nil
	}
	out := *p
	out.WeeklyVisits = append(schedule.Attendance(nil), p.WeeklyVisits...)
	out.SkipWeeks = p.SkipWeeks.Clone()
	out.MissedReasons = p.MissedReasons.Clone()
	out.Herbal = append([]HerbalRecord(nil), p.Herbal...)
	return &out
}

// SortKey is the date the board orders rows by: treatment start, else first
// visit, else creation time.
func (p *Patient) SortKey() time.Time {
	if d, ok := schedule.ParseDate(p.TreatmentStartDate); ok {
		return d
	}
	if d, ok := schedule.ParseDate(p.FirstVisitDate); ok {
		return d
	}
	return p.CreatedAt.UTC()
}
