package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or out-of-range input rejected before any mutation
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a stale or unknown id
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a write that collides with existing state (duplicate tenant name)
	ErrConflict = errors.New("conflict")
)

// Validationf returns an ErrValidation carrying a human-readable message
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// NotFoundf returns an ErrNotFound carrying a human-readable message
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Conflictf returns an ErrConflict carrying a human-readable message
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}
