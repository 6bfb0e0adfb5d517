package analyzer

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDocument is returned when the document is empty or whitespace only.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrInvalidConfig is wrapped by every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid evaluation config")

	// ErrInternal reports an unexpected failure inside the engine. Evaluation
	// is pure, so retrying the same call is safe.
	ErrInternal = errors.New("internal evaluation error")
)

// ValidationError names the offending config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

func invalidConfig(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
