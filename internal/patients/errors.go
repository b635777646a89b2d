package patients

import "errors"

var (
	// ErrPatientNotFound is returned when no record has the requested id.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrInvalidName is returned when the name is blank.
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidCadence is returned for a visit interval outside 1 <= visits <= weeks <= 4.
	ErrInvalidCadence = errors.New("invalid visit interval")

	// ErrWeekOutOfRange is returned for a week index outside the slot array.
	ErrWeekOutOfRange = errors.New("week index out of range")

	// ErrMonthOutOfRange is returned for a herbal month outside the log.
	ErrMonthOutOfRange = errors.New("herbal month out of range")

	// ErrInvalidField wraps any other validation failure.
	ErrInvalidField = errors.New("invalid field")

	// ErrEmptyPatch is returned when an update carries no fields.
	ErrEmptyPatch = errors.New("no fields to update")
)

// IsValidation reports whether err is a client input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidCadence) ||
		errors.Is(err, ErrWeekOutOfRange) ||
		errors.Is(err, ErrMonthOutOfRange) ||
		errors.Is(err, ErrInvalidField) ||
		errors.Is(err, ErrEmptyPatch)
}
