package apperr

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrConflict indicates a uniqueness conflict.
var ErrConflict = errors.New("conflict")

// ErrNotFound indicates that the requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden indicates that the caller may not act on the resource.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidTransition indicates that the requested status is not reachable from the current one.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrInvalidState indicates that the current status does not allow the operation.
var ErrInvalidState = errors.New("invalid state")

// ErrNoCodeAssigned indicates that the delivery has no validation code.
var ErrNoCodeAssigned = errors.New("no validation code assigned")

// ErrCodeMismatch indicates that the supplied validation code is wrong.
var ErrCodeMismatch = errors.New("validation code mismatch")

// ErrTooManyAttempts indicates that the validation attempts budget is exhausted.
var ErrTooManyAttempts = errors.New("too many attempts")

// ErrTransient marks failures the caller may retry.
var ErrTransient = errors.New("transient failure")

// TransitionError names the rejected transition.
type TransitionError struct {
	From string
	To   string
}

// NewTransitionError returns an error matching ErrInvalidTransition.
func NewTransitionError(from, to string) error {
	return &TransitionError{From: from, To: to}
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

// Is makes errors.Is(err, ErrInvalidTransition) hold.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Transient wraps err so that it matches ErrTransient.
func Transient(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}
