package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// These should never fail in normal operation
	if err := Validate.RegisterValidation("regexp", validateRegexp); err != nil {
		panic(fmt.Sprintf("failed to register regexp validator: %v", err))
	}
	if err := Validate.RegisterValidation("day", validateDay); err != nil {
		panic(fmt.Sprintf("failed to register day validator: %v", err))
	}
}

var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// validateRegexp checks that a string compiles as a Go regular expression
func validateRegexp(fl validator.FieldLevel) bool {
	_, err := regexp.Compile(fl.Field().String())
	return err == nil
}

// validateDay checks the YYYY-MM-DD shape used for daily keys
func validateDay(fl validator.FieldLevel) bool {
	return dayPattern.MatchString(fl.Field().String())
}

// IsDay reports whether value is a YYYY-MM-DD day key
func IsDay(value string) bool {
	return dayPattern.MatchString(value)
}

// Describe flattens validator errors into a single readable message
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed '%s'", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
