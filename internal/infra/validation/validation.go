package validation

import (
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// New builds the process-wide validator with the custom rules the DTOs
// reference.
func New() *validator.Validate {
	v := validator.New()

	// at least 8 runes, no whitespace or control characters
	_ = v.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		pwd := fl.Field().String()
		if utf8.RuneCountInString(pwd) < 8 {
			return false
		}
		for _, r := range pwd {
			if unicode.IsControl(r) || unicode.IsSpace(r) {
				return false
			}
		}
		return true
	})

	_ = v.RegisterValidation("pastdate", func(fl validator.FieldLevel) bool {
		d, err := time.Parse("2006-01-02", fl.Field().String())
		if err != nil {
			return false
		}
		return !d.After(time.Now())
	})

	return v
}
