// Package validate checks request payloads before they reach the access
// policy or a store. Validators trim string fields in place and report
// failures per JSON field; they never return an error for bad input.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/flowmatrix/roiportal/internal/apperr"
)

// Field limits.
const (
	MaxNoteLength        = 500
	MaxTestimonialLength = 300
	MaxTaskLength        = 500
	MaxNameLength        = 200
	MaxIndustryLength    = 100
	MaxEmailLength       = 254
	MaxWage              = 1000.0
	MinPasswordLength    = 8
	MaxPasswordLength    = 72
)

var (
	uuidRE  = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	tokenRE = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// Result is the outcome of a validator.
type Result struct {
	IsValid bool              `json:"isValid"`
	Errors  map[string]string `json:"errors"`
}

// Err returns nil for a valid result and an apperr validation error carrying
// the field messages otherwise.
func (r Result) Err() error {
	if r.IsValid {
		return nil
	}
	return apperr.Validation(r.message(), r.Errors)
}

// message is the single field message when there is one.
func (r Result) message() string {
	if len(r.Errors) == 1 {
		for _, msg := range r.Errors {
			return msg
		}
	}
	return "validation failed"
}

func newResult(err error) Result {
	res := Result{IsValid: true, Errors: map[string]string{}}
	if err == nil {
		return res
	}
	res.IsValid = false

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, fe := range fieldErrs {
			res.Errors[field] = fe.Error()
		}
		return res
	}
	res.Errors["_"] = "invalid input"
	return res
}

// with records an additional failure on field.
func (r Result) with(field, msg string) Result {
	r.IsValid = false
	r.Errors[field] = msg
	return r
}

// UUID checks a single identifier such as a query parameter. Failures are
// reported under field.
func UUID(field, value string) Result {
	if err := validation.Validate(strings.TrimSpace(value), uuidRules(field)...); err != nil {
		return newResult(validation.Errors{field: err})
	}
	return newResult(nil)
}

func uuidRules(label string) []validation.Rule {
	return []validation.Rule{
		validation.Required.Error(label + " is required"),
		validation.Match(uuidRE).Error(label + " must be a valid UUID"),
	}
}

func requiredText(label string, max int) []validation.Rule {
	return []validation.Rule{
		validation.Required.Error(label + " is required"),
		validation.RuneLength(0, max).Error(fmt.Sprintf("%s must be at most %d characters", label, max)),
	}
}

func nonNegative(label string) validation.Rule {
	return validation.Min(0.0).Error(label + " must be positive")
}

func wage(label string) []validation.Rule {
	return []validation.Rule{
		validation.Min(0.0).Error(label + " must be at least 0"),
		validation.Max(MaxWage).Error(fmt.Sprintf("%s must be at most %d", label, int(MaxWage))),
	}
}

func oneOf(label string, values []string) validation.Rule {
	allowed := make([]any, len(values))
	for i, v := range values {
		allowed[i] = v
	}
	return validation.In(allowed...).Error(label + " must be one of: " + strings.Join(values, ", "))
}

func email() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Email is required"),
		validation.Match(emailRE).Error("Please enter a valid email address"),
		validation.RuneLength(0, MaxEmailLength).Error(fmt.Sprintf("Email is too long (max %d characters)", MaxEmailLength)),
	}
}

func password() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Password is required"),
		validation.Length(MinPasswordLength, MaxPasswordLength).Error(
			fmt.Sprintf("Password must be between %d and %d characters", MinPasswordLength, MaxPasswordLength)),
	}
}

// notNull fails when a present key was sent as null.
func notNull(isNull bool, label string) validation.Rule {
	return validation.When(isNull, validation.By(func(any) error {
		return errors.New(label + " is required")
	}))
}

// date accepts YYYY-MM-DD or RFC 3339. Empty values pass.
func date(label string) validation.Rule {
	return validation.By(func(value any) error {
		v, isNil := validation.Indirect(value)
		if isNil {
			return nil
		}
		s, ok := v.(string)
		if !ok {
			return errors.New(label + " must be a valid date")
		}
		if s == "" {
			return nil
		}
		if _, err := time.Parse("2006-01-02", s); err == nil {
			return nil
		}
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			return nil
		}
		return errors.New(label + " must be a valid date")
	})
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
