package core

import (
	"errors"
)

// ErrUnknownService is returned when a service id is not registered.
var ErrUnknownService = errors.New("unknown service")

// FatalError marks an error the owning service cannot recover from.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err so that routing it through a service instance tears the
// instance down. Fatal(nil) is nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	var fe *FatalError
	if errors.As(err, &fe) {
		return err
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether err (or anything it wraps) is fatal.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
