package myerrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation policy and HTTP mapping.
type Kind string

const (
	KindValidation Kind = "validation"
	KindForbidden  Kind = "forbidden"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindUpstream   Kind = "upstream"
	KindStorage    Kind = "storage"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two *Error values by kind and message, so the sentinel
// values below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the classification of err, defaulting to storage for
// anything unclassified (callers must assume the transition did not apply).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

var (
	ErrActiveRideExists        = E(KindConflict, "rider already has an active ride")
	ErrRideNumberTaken         = E(KindConflict, "ride number already taken")
	ErrRideNotFound            = E(KindNotFound, "ride not found")
	ErrAlreadyAssigned         = E(KindConflict, "ride already assigned to another driver")
	ErrNotAssignedDriver       = E(KindForbidden, "caller is not the assigned driver")
	ErrInvalidStateForStart    = E(KindConflict, "ride cannot be started in its current state")
	ErrInvalidStateForComplete = E(KindConflict, "ride cannot be completed in its current state")
	ErrAlreadyCompleted        = E(KindConflict, "ride already completed")
	ErrAlreadyCancelled        = E(KindConflict, "ride already cancelled")
	ErrForbidden               = E(KindForbidden, "operation not allowed for this actor")
	ErrDuplicateRating         = E(KindConflict, "rating already submitted for this ride")
	ErrRideNotCompleted        = E(KindValidation, "ride is not completed yet")
	ErrAddressNotFound         = E(KindUpstream, "address could not be geocoded")
	ErrRouteResolutionFailed   = E(KindUpstream, "no route between pickup and destination")
	ErrDriverNotFound          = E(KindNotFound, "driver not found")
	ErrLocationUnknown         = E(KindNotFound, "no known location for driver")
)
