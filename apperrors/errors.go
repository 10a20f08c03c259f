// Package apperrors defines the error kinds shared across the messaging core.
// Callers classify failures with errors.Is against the exported sentinels.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a malformed request, e.g. a message with neither
	// text nor image.
	ErrValidation = errors.New("validation error")
	// ErrUpload marks an object-store write failure.
	ErrUpload = errors.New("upload error")
	// ErrResolution marks a signed-URL lookup or signing failure.
	ErrResolution = errors.New("resolution error")
	// ErrStorage marks a document-store failure.
	ErrStorage = errors.New("storage error")
	// ErrNotFound marks a missing referenced entity. Soft: the relay path
	// never raises it.
	ErrNotFound = errors.New("not found")
)

// Validationf builds a validation error with a caller-facing message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Wrap tags err with the given kind and an operation description.
func Wrap(kind error, op string, err error) error {
	return fmt.Errorf("%w: %s: %w", kind, op, err)
}
