package patients

import (
	"strings"
	"time"

	"github.com/wolfman30/herbal-board/internal/schedule"
)

// Patch is a partial update. Nil fields are left alone.
type Patch struct {
	Name               *string              `json:"name,omitempty" validate:"omitempty,max=100"`
	ChartNumber        *string              `json:"chart_number,omitempty" validate:"omitempty,max=40"`
	Doctor             *string              `json:"doctor,omitempty" validate:"omitnil,room_or_empty"`
	Contact            *string              `json:"contact,omitempty" validate:"omitempty,max=40"`
	Symptoms           *string              `json:"symptoms,omitempty" validate:"omitempty,max=1000"`
	FirstVisitDate     *string              `json:"first_visit_date,omitempty" validate:"omitnil,date_or_empty"`
	TreatmentStartDate *string              `json:"treatment_start_date,omitempty" validate:"omitnil,date_or_empty"`
	TreatmentPeriod    *int                 `json:"treatment_period,omitempty" validate:"omitempty,min=0,max=9"`
	PrescriptionPeriod *int                 `json:"prescription_period,omitempty" validate:"omitempty,min=0,max=6"`
	VisitPeriod        *int                 `json:"visit_period,omitempty" validate:"omitempty,min=0,max=9"`
	VisitInterval      *schedule.Cadence    `json:"visit_interval,omitempty"`
	HerbalType         *HerbalType          `json:"herbal_type,omitempty" validate:"omitempty,oneof=none decoction pill"`
	MedicineOnly       *bool                `json:"medicine_only,omitempty"`
	WeeklyVisits       *schedule.Attendance `json:"weekly_visits,omitempty"`
	SkipWeeks          *schedule.WeekSet    `json:"skip_weeks,omitempty"`
	MissedReasons      *schedule.Reasons    `json:"missed_reasons,omitempty"`
	Herbal             *[]HerbalRecord      `json:"herbal,omitempty"`
	Status             *Status              `json:"status,omitempty" validate:"omitempty,oneof=active graduated dropout other"`
	GraduationDate     *string              `json:"graduation_date,omitempty" validate:"omitnil,date_or_empty"`
	Review             *Review              `json:"review,omitempty" validate:"omitnil,review_or_empty"`
}

// Validate checks the fields that are set.
func (p *Patch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return ErrInvalidName
		}
		p.Name = &name
	}
	p.FirstVisitDate = trimPtr(p.FirstVisitDate)
	p.TreatmentStartDate = trimPtr(p.TreatmentStartDate)
	p.GraduationDate = trimPtr(p.GraduationDate)
	if p.VisitInterval != nil && !ValidCadence(*p.VisitInterval) {
		return ErrInvalidCadence
	}
	if p.Herbal != nil && len(*p.Herbal) > HerbalMonths {
		return ErrMonthOutOfRange
	}
	if p.SkipWeeks != nil {
		for w := range *p.SkipWeeks {
			if w < 0 || w >= schedule.SlotCount {
				return ErrWeekOutOfRange
			}
		}
	}
	if p.MissedReasons != nil {
		for w := range *p.MissedReasons {
			if w < 0 || w >= schedule.SlotCount {
				return ErrWeekOutOfRange
			}
		}
	}
	return structError(validate.Struct(p))
}

// Fields lists the columns the patch touches, in table order.
func (p Patch) Fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.Name != nil, "name")
	add(p.ChartNumber != nil, "chart_number")
	add(p.Doctor != nil, "doctor")
	add(p.Contact != nil, "contact")
	add(p.Symptoms != nil, "symptoms")
	add(p.FirstVisitDate != nil, "first_visit_date")
	add(p.TreatmentStartDate != nil, "treatment_start_date")
	add(p.TreatmentPeriod != nil, "treatment_period")
	add(p.PrescriptionPeriod != nil, "prescription_period")
	add(p.VisitPeriod != nil, "visit_period")
	add(p.VisitInterval != nil, "visit_interval")
	add(p.HerbalType != nil, "herbal_type")
	add(p.MedicineOnly != nil, "medicine_only")
	add(p.WeeklyVisits != nil, "weekly_visits")
	add(p.SkipWeeks != nil, "skip_weeks")
	add(p.MissedReasons != nil, "missed_reasons")
	add(p.Herbal != nil, "herbal")
	add(p.Status != nil, "status")
	add(p.GraduationDate != nil, "graduation_date")
	add(p.Review != nil, "review")
	return out
}

// IsEmpty reports whether no field is set.
func (p Patch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Merge returns p with every field set in next overriding it.
func (p Patch) Merge(next Patch) Patch {
	out := p
	if next.Name != nil {
		out.Name = next.Name
	}
	if next.ChartNumber != nil {
		out.ChartNumber = next.ChartNumber
	}
	if next.Doctor != nil {
		out.Doctor = next.Doctor
	}
	if next.Contact != nil {
		out.Contact = next.Contact
	}
	if next.Symptoms != nil {
		out.Symptoms = next.Symptoms
	}
	if next.FirstVisitDate != nil {
		out.FirstVisitDate = next.FirstVisitDate
	}
	if next.TreatmentStartDate != nil {
		out.TreatmentStartDate = next.TreatmentStartDate
	}
	if next.TreatmentPeriod != nil {
		out.TreatmentPeriod = next.TreatmentPeriod
	}
	if next.PrescriptionPeriod != nil {
		out.PrescriptionPeriod = next.PrescriptionPeriod
	}
	if next.VisitPeriod != nil {
		out.VisitPeriod = next.VisitPeriod
	}
	if next.VisitInterval != nil {
		out.VisitInterval = next.VisitInterval
	}
	if next.HerbalType != nil {
		out.HerbalType = next.HerbalType
	}
	if next.MedicineOnly != nil {
		out.MedicineOnly = next.MedicineOnly
	}
	if next.WeeklyVisits != nil {
		out.WeeklyVisits = next.WeeklyVisits
	}
	if next.SkipWeeks != nil {
		out.SkipWeeks = next.SkipWeeks
	}
	if next.MissedReasons != nil {
		out.MissedReasons = next.MissedReasons
	}
	if next.Herbal != nil {
		out.Herbal = next.Herbal
	}
	if next.Status != nil {
		out.Status = next.Status
	}
	if next.GraduationDate != nil {
		out.GraduationDate = next.GraduationDate
	}
	if next.Review != nil {
		out.Review = next.Review
	}
	return out
}

// WithGraduation adds an inferred graduation date when the patch moves the
// patient into graduated, no date is stored yet and the patch does not bring
// one itself.
func (p Patch) WithGraduation(current *Patient, today time.Time) Patch {
	if p.Status == nil || *p.Status != StatusGraduated {
		return p
	}
	if current.Status == StatusGraduated || current.GraduationDate != "" || p.GraduationDate != nil {
		return p
	}
	visits := current.WeeklyVisits
	if p.WeeklyVisits != nil {
		visits = *p.WeeklyVisits
	}
	start := current.TreatmentStartDate
	if p.TreatmentStartDate != nil {
		start = *p.TreatmentStartDate
	}
	date := schedule.InferGraduationDate(start, visits, today)
	p.GraduationDate = &date
	return p
}

// Apply writes the patch onto the record in place and stamps UpdatedAt.
func (p *Patient) Apply(patch Patch, now time.Time) {
	p.overlay(patch)
	p.UpdatedAt = now.UTC()
}

// Overlay returns a copy of remote with the fields of a pending local patch
// laid over it. Fields the patch does not touch come from remote.
func Overlay(remote *Patient, pending Patch) *Patient {
	out := remote.Clone()
	out.overlay(pending)
	return out
}

func (p *Patient) overlay(patch Patch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.ChartNumber != nil {
		p.ChartNumber = *patch.ChartNumber
	}
	if patch.Doctor != nil {
		p.Doctor = *patch.Doctor
	}
	if patch.Contact != nil {
		p.Contact = *patch.Contact
	}
	if patch.Symptoms != nil {
		p.Symptoms = *patch.Symptoms
	}
	if patch.FirstVisitDate != nil {
		p.FirstVisitDate = *patch.FirstVisitDate
	}
	if patch.TreatmentStartDate != nil {
		p.TreatmentStartDate = *patch.TreatmentStartDate
	}
	if patch.TreatmentPeriod != nil {
		p.TreatmentPeriod = *patch.TreatmentPeriod
	}
	if patch.PrescriptionPeriod != nil {
		p.PrescriptionPeriod = *patch.PrescriptionPeriod
	}
	if patch.VisitPeriod != nil {
		p.VisitPeriod = *patch.VisitPeriod
	}
	if patch.VisitInterval != nil {
		p.VisitInterval = *patch.VisitInterval
	}
	if patch.HerbalType != nil {
		p.HerbalType = *patch.HerbalType
	}
	if patch.MedicineOnly != nil {
		p.MedicineOnly = *patch.MedicineOnly
	}
	if patch.WeeklyVisits != nil {
		p.WeeklyVisits = patch.WeeklyVisits.Normalize()
	}
	if patch.SkipWeeks != nil {
		p.SkipWeeks = patch.SkipWeeks.Clone()
	}
	if patch.MissedReasons != nil {
		p.MissedReasons = patch.MissedReasons.Clone()
	}
	if patch.Herbal != nil {
		p.Herbal = normalizeHerbal(*patch.Herbal)
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.GraduationDate != nil {
		p.GraduationDate = *patch.GraduationDate
	}
	if patch.Review != nil {
		p.Review = *patch.Review
	}
}
