// pkg/eos_err/types.go

package eos_err

import "errors"

// UserError marks an error as expected and recoverable by the user.
type UserError struct {
	cause error
}

func (e *UserError) Error() string {
	return e.cause.Error()
}

func (e *UserError) Unwrap() error {
	return e.cause
}

// NewExpectedError wraps an error for softer UX handling.
func NewExpectedError(err error) error {
	if err == nil {
		return nil
	}
	return &UserError{cause: err}
}

// IsExpectedUserError reports whether err is something the operator can fix
// by changing their input: an explicit UserError or a refusal from the
// sanitization gate.
func IsExpectedUserError(err error) bool {
	var e *UserError
	if errors.As(err, &e) {
		return true
	}
	switch KindOf(err) {
	case ErrConfirmationRequired, ErrVolumeNotFound, ErrSystemVolumeProtected:
		return true
	}
	return false
}
