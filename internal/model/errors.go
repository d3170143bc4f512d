package model

import "fmt"

// Payload kinds used in validation errors.
const (
	KindGame    = "game"
	KindBracket = "bracket"
)

// ValidationError reports a payload rejected at the decode boundary.
type ValidationError struct {
	// Kind is KindGame or KindBracket.
	Kind string

	// Field is the offending field path, if known.
	Field string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s payload: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s payload: %s", e.Kind, e.Message)
}

func gameFieldError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: KindGame, Field: field, Message: fmt.Sprintf(format, args...)}
}

func bracketFieldError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: KindBracket, Field: field, Message: fmt.Sprintf(format, args...)}
}
