// pkg/eos_err/sanitize.go

package eos_err

import (
	"errors"
	"strings"
)

// The closed set of sanitization failure kinds. Every error returned by the
// catalog, classifier, overwrite engine and orchestrator is a *SanitizeError
// whose Kind is one of these.
var (
	ErrEnumerationFailure    = errors.New("volume enumeration failed")
	ErrVolumeNotFound        = errors.New("volume not found")
	ErrSystemVolumeProtected = errors.New("cannot sanitize system volume")
	ErrConfirmationRequired  = errors.New("confirmation required to proceed")
	ErrIOFailure             = errors.New("overwrite I/O failure")
)

var kindNames = map[error]string{
	ErrEnumerationFailure:    "enumeration_failure",
	ErrVolumeNotFound:        "not_found",
	ErrSystemVolumeProtected: "system_volume_protected",
	ErrConfirmationRequired:  "confirmation_required",
	ErrIOFailure:             "io_failure",
}

// SanitizeError is a classified sanitization failure.
type SanitizeError struct {
	Kind       error
	Identifier string
	// Op names the step that failed, e.g. "create", "write", "flush".
	Op    string
	Cause error
}

func (e *SanitizeError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Identifier != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Identifier)
		sb.WriteString(")")
	}
	if e.Op != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Op)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is.
func (e *SanitizeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Category maps the failure kind onto the exit-code categories.
func (e *SanitizeError) Category() ErrorCategory {
	switch e.Kind {
	case ErrConfirmationRequired, ErrVolumeNotFound:
		return CategoryValidation
	case ErrSystemVolumeProtected:
		return CategoryPermission
	default:
		return CategorySystem
	}
}

func EnumerationFailure(cause error) error {
	return &SanitizeError{Kind: ErrEnumerationFailure, Cause: cause}
}

func VolumeNotFound(identifier string) error {
	return &SanitizeError{Kind: ErrVolumeNotFound, Identifier: identifier}
}

func SystemVolumeProtected(identifier string) error {
	return &SanitizeError{Kind: ErrSystemVolumeProtected, Identifier: identifier}
}

func ConfirmationRequired(identifier string) error {
	return &SanitizeError{Kind: ErrConfirmationRequired, Identifier: identifier}
}

func IOFailure(identifier, op string, cause error) error {
	return &SanitizeError{Kind: ErrIOFailure, Identifier: identifier, Op: op, Cause: cause}
}

// KindOf returns the failure kind sentinel of err, or nil when err is not a
// sanitization failure.
func KindOf(err error) error {
	var se *SanitizeError
	if errors.As(err, &se) {
		return se.Kind
	}
	return nil
}

// KindName returns the wire name of err's kind ("not_found", ...), or
// "internal" for errors outside the taxonomy.
func KindName(err error) string {
	if name, ok := kindNames[KindOf(err)]; ok {
		return name
	}
	return "internal"
}
