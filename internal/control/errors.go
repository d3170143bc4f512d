package control

import (
	"errors"
	"fmt"
)

// ErrNotPermitted is returned when a viewer session asks for an
// operator-only action.
var ErrNotPermitted = errors.New("operator session required")

// Fallback messages used when the server sends none.
const (
	MsgResetFailed = "Unable to reset game (are you logged in as admin?)"
	MsgWriteFailed = "Request failed (are you logged in as admin?)"
)

// UserError is a failed operator write with the text to show the user.
type UserError struct {
	Op      string
	Message string
	Demoted bool // the session lost operator privilege
	Err     error
}

// Error implements the error interface.
func (e *UserError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying failure.
func (e *UserError) Unwrap() error {
	return e.Err
}
