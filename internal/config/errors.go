package config

import (
	"errors"
	"fmt"
)

// ErrValidationFailed is matched by every ValidationError.
var ErrValidationFailed = errors.New("validation failed")

// ValidationError describes one invalid setting.
type ValidationError struct {
	// Path is the setting path, e.g. "ui.fps".
	Path string
	// Value is the invalid value.
	Value any
	// Message describes the problem.
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Path, e.Message, e.Value)
}

// Is lets errors.Is match ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

func invalid(path string, value any, format string, args ...any) error {
	return &ValidationError{Path: path, Value: value, Message: fmt.Sprintf(format, args...)}
}
