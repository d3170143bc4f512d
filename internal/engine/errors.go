package engine

import (
	"errors"
	"fmt"
)

// ErrStopped is returned by Apply once the engine no longer accepts events.
var ErrStopped = errors.New("engine stopped")

// TransitionError reports a transition that failed and was rolled back.
type TransitionError struct {
	Source Source
	Name   string
	Err    error
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %s: %v", e.Source, e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// Unwrap returns the transition's own error.
func (e *TransitionError) Unwrap() error {
	return e.Err
}
