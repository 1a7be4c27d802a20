package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports a malformed prompt, schema, example set or
	// text. It is never retried.
	ErrInvalidInput = errors.New("invalid extraction input")
	// ErrRetriesExhausted is matched by every *RetryError.
	ErrRetriesExhausted = errors.New("extraction retries exhausted")
)

// RetryError is returned once all attempts of an engine call failed. It
// wraps the error of the last attempt. Callers must not retry it again.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("extraction failed after %d attempts, last error: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.Err}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
