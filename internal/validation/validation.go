// Package validation holds the client-side field checks run before any
// create or update reaches the network.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrInvalid is matched by errors.Is for every Errors value.
var ErrInvalid = errors.New("validation failed")

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// Errors collects the failures of one validation pass.
type Errors []ValidationError

// Error implements the error interface.
func (e Errors) Error() string {
	switch len(e) {
	case 0:
		return ErrInvalid.Error()
	case 1:
		return e[0].Error()
	}
	parts := make([]string, len(e))
	for i, ve := range e {
		parts[i] = ve.Error()
	}
	return strings.Join(parts, "; ")
}

// Unwrap returns ErrInvalid for errors.Is() compatibility.
func (e Errors) Unwrap() error {
	return ErrInvalid
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// Err returns the accumulated errors as an Errors value, or nil.
func (c *Collector) Err() error {
	if !c.HasErrors() {
		return nil
	}
	return Errors(c.errors)
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateEnum returns an error if the value is not in the allowed list.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateID returns an error unless id references a saved entity.
func ValidateID(field string, id int64) *ValidationError {
	if id <= 0 {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateDateSet returns an error for the zero time.
func ValidateDateSet(field string, t time.Time) *ValidationError {
	if t.IsZero() {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateNotBefore returns an error if end is set and falls before start.
func ValidateNotBefore(field string, start, end time.Time) *ValidationError {
	if !end.IsZero() && !start.IsZero() && end.Before(start) {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must not be before %s", start.Format("2006-01-02")),
		}
	}
	return nil
}

// ValidateExactlyOne returns an error unless exactly one of the two fields is set.
func ValidateExactlyOne(fieldA string, setA bool, fieldB string, setB bool) *ValidationError {
	if setA == setB {
		return &ValidationError{
			Field:   fieldA,
			Message: fmt.Sprintf("exactly one of %s or %s must be set", fieldA, fieldB),
		}
	}
	return nil
}
