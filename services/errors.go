package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input. Never retried.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a record missing or outside the caller's scope
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an operation the caller's role may not perform
	ErrForbidden = errors.New("forbidden")
	// ErrConflict marks a uniqueness violation (case number, assignment)
	ErrConflict = errors.New("conflict")
	// ErrCalendarNotConnected means the user has no stored calendar credential
	ErrCalendarNotConnected = errors.New("calendar not connected")
	// ErrAuthExpired means the stored calendar credential could not be refreshed
	ErrAuthExpired = errors.New("calendar authorization expired")
	// ErrProvider marks any other failure of the external calendar call
	ErrProvider = errors.New("calendar provider error")
)

func validationErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
