package polls

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse is returned when the server accepted a poll vote but
	// sent back no post
	ErrEmptyResponse = errors.New("poll vote returned no post")
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
