package patients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/wolfman30/herbal-board/internal/schedule"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("herbal.internal.patients")

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Period columns are read as text so rows written by older clients, which
// stored "3개월" style strings, load the same way as integer columns.
const selectColumns = `id, owner_key, name, COALESCE(chart_number, ''), COALESCE(doctor, ''),
	COALESCE(contact, ''), COALESCE(symptoms, ''),
	COALESCE(first_visit_date::text, ''), COALESCE(treatment_start_date::text, ''),
	treatment_period::text, prescription_period::text, visit_period::text,
	COALESCE(visit_interval, ''), COALESCE(herbal_type, ''), COALESCE(medicine_only, false),
	weekly_visits, skip_weeks, missed_reasons, herbal,
	COALESCE(status, ''), COALESCE(graduation_date::text, ''), COALESCE(review, ''),
	created_at, updated_at`

// PostgresRepository stores patients in the patients table.
type PostgresRepository struct {
	db  DB
	now func() time.Time
}

// NewPostgresRepository wraps a pgx pool or connection.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("patients: db required")
	}
	return &PostgresRepository{db: db, now: time.Now}
}

// LoadAll implements Repository.
func (r *PostgresRepository) LoadAll(ctx context.Context, owner string) ([]*Patient, error) {
	ctx, span := tracer.Start(ctx, "patients.load_all", trace.WithAttributes(attribute.String("board.owner_key", owner)))
	defer span.End()

	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+`
		FROM patients
		WHERE owner_key = $1
		ORDER BY created_at DESC`, owner)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("patients: load all: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			recordSpanError(span, err)
			return nil, fmt.Errorf("patients: load all: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("patients: load all: %w", err)
	}
	span.SetAttributes(attribute.Int("board.patients", len(out)))
	return out, nil
}

// Get implements Repository.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Patient, error) {
	ctx, span := tracer.Start(ctx, "patients.get", trace.WithAttributes(attribute.String("board.patient_id", id)))
	defer span.End()

	p, err := scanPatient(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM patients WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		recordSpanError(span, err)
		return nil, fmt.Errorf("patients: get: %w", err)
	}
	return p, nil
}

// Insert implements Repository.
func (r *PostgresRepository) Insert(ctx context.Context, owner string, p *Patient) error {
	ctx, span := tracer.Start(ctx, "patients.insert", trace.WithAttributes(attribute.String("board.owner_key", owner)))
	defer span.End()

	if p.ID == "" {
		p.ID = NewID()
	}
	p.OwnerKey = owner
	now := r.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Normalize()
	span.SetAttributes(attribute.String("board.patient_id", p.ID))

	visits, err := jsonArg(p.WeeklyVisits)
	if err != nil {
		return fmt.Errorf("patients: insert: %w", err)
	}
	skips, err := jsonArg(p.SkipWeeks)
	if err != nil {
		return fmt.Errorf("patients: insert: %w", err)
	}
	reasons, err := jsonArg(p.MissedReasons)
	if err != nil {
		return fmt.Errorf("patients: insert: %w", err)
	}
	herbal, err := jsonArg(p.Herbal)
	if err != nil {
		return fmt.Errorf("patients: insert: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO patients (id, owner_key, name, chart_number, doctor, contact, symptoms,
			first_visit_date, treatment_start_date, treatment_period, prescription_period, visit_period,
			visit_interval, herbal_type, medicine_only, weekly_visits, skip_weeks, missed_reasons, herbal,
			status, graduation_date, review, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		p.ID, owner, p.Name, p.ChartNumber, p.Doctor, p.Contact, p.Symptoms,
		nullDate(p.FirstVisitDate), nullDate(p.TreatmentStartDate),
		p.TreatmentPeriod, p.PrescriptionPeriod, p.VisitPeriod,
		p.VisitInterval.String(), string(p.HerbalType), p.MedicineOnly,
		visits, skips, reasons, herbal,
		string(p.Status), nullDate(p.GraduationDate), string(p.Review),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("patients: insert: %w", err)
	}
	return nil
}

// Update implements Repository. Only the patched columns and updated_at are
// written; empty dates are stored as NULL.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch Patch) (*Patient, error) {
	ctx, span := tracer.Start(ctx, "patients.update", trace.WithAttributes(
		attribute.String("board.patient_id", id),
		attribute.StringSlice("board.fields", patch.Fields()),
	))
	defer span.End()

	cols, args, err := patchColumns(patch)
	if err != nil {
		return nil, fmt.Errorf("patients: update: %w", err)
	}
	if len(cols) == 0 {
		return nil, ErrEmptyPatch
	}

	sets := make([]string, 0, len(cols)+1)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
	}
	args = append(args, r.now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE patients SET %s WHERE id = $%d RETURNING `+selectColumns,
		strings.Join(sets, ", "), len(args))
	p, err := scanPatient(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		recordSpanError(span, err)
		return nil, fmt.Errorf("patients: update: %w", err)
	}
	return p, nil
}

// Delete implements Repository.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "patients.delete", trace.WithAttributes(attribute.String("board.patient_id", id)))
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("patients: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func patchColumns(patch Patch) ([]string, []any, error) {
	var cols []string
	var args []any
	add := func(col string, v any) {
		cols = append(cols, col)
		args = append(args, v)
	}
	addJSON := func(col string, v any) error {
		s, err := jsonArg(v)
		if err != nil {
			return err
		}
		add(col, s)
		return nil
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.ChartNumber != nil {
		add("chart_number", *patch.ChartNumber)
	}
	if patch.Doctor != nil {
		add("doctor", *patch.Doctor)
	}
	if patch.Contact != nil {
		add("contact", *patch.Contact)
	}
	if patch.Symptoms != nil {
		add("symptoms", *patch.Symptoms)
	}
	if patch.FirstVisitDate != nil {
		add("first_visit_date", nullDate(*patch.FirstVisitDate))
	}
	if patch.TreatmentStartDate != nil {
		add("treatment_start_date", nullDate(*patch.TreatmentStartDate))
	}
	if patch.TreatmentPeriod != nil {
		add("treatment_period", *patch.TreatmentPeriod)
	}
	if patch.PrescriptionPeriod != nil {
		add("prescription_period", *patch.PrescriptionPeriod)
	}
	if patch.VisitPeriod != nil {
		add("visit_period", *patch.VisitPeriod)
	}
	if patch.VisitInterval != nil {
		add("visit_interval", patch.VisitInterval.String())
	}
	if patch.HerbalType != nil {
		add("herbal_type", string(*patch.HerbalType))
	}
	if patch.MedicineOnly != nil {
		add("medicine_only", *patch.MedicineOnly)
	}
	if patch.WeeklyVisits != nil {
		if err := addJSON("weekly_visits", patch.WeeklyVisits.Normalize()); err != nil {
			return nil, nil, err
		}
	}
	if patch.SkipWeeks != nil {
		if err := addJSON("skip_weeks", *patch.SkipWeeks); err != nil {
			return nil, nil, err
		}
	}
	if patch.MissedReasons != nil {
		if err := addJSON("missed_reasons", *patch.MissedReasons); err != nil {
			return nil, nil, err
		}
	}
	if patch.Herbal != nil {
		if err := addJSON("herbal", normalizeHerbal(*patch.Herbal)); err != nil {
			return nil, nil, err
		}
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.GraduationDate != nil {
		add("graduation_date", nullDate(*patch.GraduationDate))
	}
	if patch.Review != nil {
		add("review", string(*patch.Review))
	}
	return cols, args, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanPatient reads one row and normalizes the stored shapes: text periods,
// cadence strings, short attendance arrays and legacy herbal keys.
func scanPatient(row rowScanner) (*Patient, error) {
	var (
		p                                    Patient
		treatment, prescription, visitPeriod *string
		interval, herbalType, status, review string
		visits, skips, reasons, herbal       []byte
	)
	err := row.Scan(
		&p.ID, &p.OwnerKey, &p.Name, &p.ChartNumber, &p.Doctor, &p.Contact, &p.Symptoms,
		&p.FirstVisitDate, &p.TreatmentStartDate,
		&treatment, &prescription, &visitPeriod,
		&interval, &herbalType, &p.MedicineOnly,
		&visits, &skips, &reasons, &herbal,
		&status, &p.GraduationDate, &review,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.TreatmentPeriod = clamp(schedule.ParseMonths(treatment, schedule.DefaultPeriodMonths), MaxTreatmentMonths)
	p.PrescriptionPeriod = clamp(schedule.ParseMonths(prescription, schedule.DefaultPeriodMonths), MaxPrescriptionMonths)
	p.VisitPeriod = clamp(schedule.ParseMonths(visitPeriod, schedule.DefaultPeriodMonths), schedule.MaxMonths)
	p.VisitInterval, _ = schedule.ParseCadence(interval)
	p.HerbalType = ParseHerbalType(herbalType)
	p.Status = ParseStatus(status)
	p.Review = ParseReview(review)

	if err := decodeJSON(visits, &p.WeeklyVisits); err != nil {
		return nil, fmt.Errorf("weekly_visits: %w", err)
	}
	p.WeeklyVisits = legacyAttendance(p.WeeklyVisits)
	if err := decodeJSON(skips, &p.SkipWeeks); err != nil {
		return nil, fmt.Errorf("skip_weeks: %w", err)
	}
	if err := decodeJSON(reasons, &p.MissedReasons); err != nil {
		return nil, fmt.Errorf("missed_reasons: %w", err)
	}
	if err := decodeJSON(herbal, &p.Herbal); err != nil {
		return nil, fmt.Errorf("herbal: %w", err)
	}
	p.Normalize()
	return &p, nil
}

func decodeJSON(data []byte, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

func jsonArg(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func nullDate(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
