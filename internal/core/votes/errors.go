package votes

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDirection indicates the vote direction is not up, down or none
	ErrInvalidDirection = errors.New("invalid vote direction: must be -1, 0 or 1")

	// ErrPostNotCached indicates the post is in neither the entity slot nor the feed,
	// so its current state is unknown
	ErrPostNotCached = errors.New("post not cached")
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
