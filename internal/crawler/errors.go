package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned when Run is called while a crawl is in progress.
	ErrAlreadyRunning = errors.New("crawl already running")

	// ErrInvalidPolicy is returned when a termination policy cannot be built.
	ErrInvalidPolicy = errors.New("invalid crawl policy")

	// ErrUnexpectedContext is returned when a response carries no crawl context.
	ErrUnexpectedContext = errors.New("response has no crawl context")
)

// WrapperError wraps an error with the URL it happened on.
type WrapperError struct {
	Err     error
	Context string
}

// Error returns the error message.
func (e *WrapperError) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Err)
}

// Unwrap returns the underlying error.
func (e *WrapperError) Unwrap() error {
	return e.Err
}
