package kafka

import "errors"

var errEmptyField = errors.New("required field is empty")

// PermanentError marks a message that can never be handled; the consumer
// commits it instead of re-reading it.
type PermanentError struct {
	Field string
	Err   error
}

func (e PermanentError) Error() string {
	switch {
	case e.Err == nil:
		return "permanent error"
	case e.Field != "":
		return e.Field + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError. nil stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return PermanentError{Err: err}
}

// IsPermanent reports whether err wraps a PermanentError.
func IsPermanent(err error) bool {
	var perm PermanentError
	return errors.As(err, &perm)
}

func missingField(name string) error {
	return PermanentError{Field: name, Err: errEmptyField}
}
