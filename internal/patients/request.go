package patients

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wolfman30/herbal-board/internal/schedule"
)

// RegisterRequest is the body of a new registration.
type RegisterRequest struct {
	Name               string            `json:"name" validate:"required,max=100"`
	ChartNumber        string            `json:"chart_number" validate:"max=40"`
	Doctor             string            `json:"doctor" validate:"omitempty,oneof=1진료실 2진료실 3진료실"`
	Contact            string            `json:"contact" validate:"max=40"`
	Symptoms           string            `json:"symptoms" validate:"max=1000"`
	FirstVisitDate     string            `json:"first_visit_date" validate:"omitempty,datetime=2006-01-02"`
	TreatmentStartDate string            `json:"treatment_start_date" validate:"omitempty,datetime=2006-01-02"`
	TreatmentPeriod    *int              `json:"treatment_period" validate:"omitempty,min=0,max=9"`
	PrescriptionPeriod *int              `json:"prescription_period" validate:"omitempty,min=0,max=6"`
	VisitPeriod        *int              `json:"visit_period" validate:"omitempty,min=0,max=9"`
	VisitInterval      *schedule.Cadence `json:"visit_interval"`
	HerbalType         HerbalType        `json:"herbal_type" validate:"omitempty,oneof=none decoction pill"`
	MedicineOnly       bool              `json:"medicine_only"`
}

// Validate trims the request and checks it.
func (r *RegisterRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return ErrInvalidName
	}
	if r.VisitInterval != nil && !ValidCadence(*r.VisitInterval) {
		return ErrInvalidCadence
	}
	return structError(validate.Struct(r))
}

// Register builds a new record from a request. Missing dates default to
// today and missing periods to the default of three months.
func Register(req RegisterRequest, owner string, now time.Time) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	today := schedule.FormatDate(now)
	p := &Patient{
		ID:                 NewID(),
		OwnerKey:           owner,
		Name:               req.Name,
		ChartNumber:        strings.TrimSpace(req.ChartNumber),
		Doctor:             req.Doctor,
		Contact:            strings.TrimSpace(req.Contact),
		Symptoms:           req.Symptoms,
		FirstVisitDate:     orDefault(req.FirstVisitDate, today),
		TreatmentStartDate: orDefault(req.TreatmentStartDate, today),
		TreatmentPeriod:    intOrDefault(req.TreatmentPeriod, schedule.DefaultPeriodMonths),
		PrescriptionPeriod: intOrDefault(req.PrescriptionPeriod, schedule.DefaultPeriodMonths),
		VisitPeriod:        intOrDefault(req.VisitPeriod, schedule.DefaultPeriodMonths),
		VisitInterval:      schedule.DefaultCadence,
		HerbalType:         req.HerbalType,
		MedicineOnly:       req.MedicineOnly,
		WeeklyVisits:       schedule.NewAttendance(),
		SkipWeeks:          schedule.NewWeekSet(),
		MissedReasons:      schedule.Reasons{},
		Herbal:             DefaultHerbal(),
		Status:             StatusActive,
		CreatedAt:          now.UTC(),
		UpdatedAt:          now.UTC(),
	}
	if req.VisitInterval != nil {
		p.VisitInterval = *req.VisitInterval
	}
	p.Normalize()
	return p, nil
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}

func intOrDefault(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

// structError converts validator output into ErrInvalidField.
func structError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidField, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidField, err)
}
