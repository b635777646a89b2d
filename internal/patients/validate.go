package patients

import (
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wolfman30/herbal-board/internal/schedule"
)

var validate = newValidator()

// newValidator adds the clearable-field rules. A patch sets a field to ""
// to clear it, and validator runs the remaining tags on non-nil pointers even
// with omitempty, so these accept the empty string explicitly.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("date_or_empty", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := time.Parse(schedule.DateLayout, s)
		return err == nil
	})
	v.RegisterValidation("room_or_empty", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || slices.Contains(Rooms, s)
	})
	v.RegisterValidation("review_or_empty", func(fl validator.FieldLevel) bool {
		r := Review(fl.Field().String())
		return r == ReviewNone || ParseReview(string(r)) == r
	})
	return v
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
