// Package validate holds the field shape rules for user supplied values.
// The set of checks is closed and known at compile time, so the rules are
// plain functions returning aggregated field errors.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Every word starts with a capital letter followed by at least two letters
// Accented letters and apostrophes are allowed
var nameRegex = regexp.MustCompile(`^([A-ZÀ-Ý][a-zà-ÿ']{2,})( [A-ZÀ-Ý][a-zà-ÿ']{2,})*$`)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type FieldError struct {
	Field   string
	Message string
}

type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// Name checks the user visible name: at least 3 letters, every word capitalized
func Name(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return FieldErrors{{Field: "name", Message: "name is required"}}
	}

	if !nameRegex.MatchString(trimmed) {
		return FieldErrors{{Field: "name", Message: "name must be at least 3 letters long and every word capitalized"}}
	}

	return nil
}

func Email(email string) error {
	trimmed := strings.TrimSpace(email)

	if trimmed == "" {
		return FieldErrors{{Field: "email", Message: "email is required"}}
	}

	// Consecutive dots pass the regex but are not deliverable
	if strings.Contains(trimmed, "..") {
		return FieldErrors{{Field: "email", Message: "email format is invalid"}}
	}

	if !emailRegex.MatchString(trimmed) {
		return FieldErrors{{Field: "email", Message: "email format is invalid"}}
	}

	return nil
}

// Password requires at least 8 characters with an upper letter, a lower
// letter, a digit and a special character
func Password(password string) error {
	trimmed := strings.TrimSpace(password)

	if trimmed == "" {
		return FieldErrors{{Field: "password", Message: "password is required"}}
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range trimmed {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsSpace(r):
			hasSpecial = true
		}
	}

	if len(trimmed) < 8 || !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return FieldErrors{{
			Field:   "password",
			Message: "password must be at least 8 characters and contain upper and lower letters, a digit and a special character",
		}}
	}

	return nil
}

// SignUpInput validates all sign up fields and aggregates the errors
func SignUpInput(name string, email string, password string) error {
	var errs FieldErrors

	for _, err := range []error{Name(name), Email(email), Password(password)} {
		if fieldErrs, ok := err.(FieldErrors); ok {
			errs = append(errs, fieldErrs...)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
