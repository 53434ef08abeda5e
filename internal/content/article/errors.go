package article

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequiredField is returned when the first page lacks title, author or date.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrMalformedMarkup is returned when a page cannot be parsed.
	ErrMalformedMarkup = errors.New("malformed markup")
	// ErrFinalized is returned when a page is fed to an accumulator that already emitted its record.
	ErrFinalized = errors.New("article already finalized")
)

// FieldError names the required field that could not be extracted.
type FieldError struct {
	Field string
	URL   string
}

// Error returns the error message.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s (%s)", ErrMissingRequiredField, e.Field, e.URL)
}

// Unwrap returns ErrMissingRequiredField.
func (e *FieldError) Unwrap() error {
	return ErrMissingRequiredField
}
