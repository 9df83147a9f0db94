package api

import (
	"errors"
	"net/http"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
)

// ErrorBody is how every failure crosses the wire.
type ErrorBody struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// httpError carries a status chosen by the handler itself.
type httpError struct {
	status int
	kind   string
	err    error
}

func (e *httpError) Error() string { return e.err.Error() }
func (e *httpError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &httpError{status: http.StatusBadRequest, kind: "bad_request", err: err}
}

func notFound(err error) error {
	return &httpError{status: http.StatusNotFound, kind: "not_found", err: err}
}

func tooManyRequests(err error) error {
	return &httpError{status: http.StatusTooManyRequests, kind: "rate_limited", err: err}
}

// statusFor maps an error to its HTTP status and wire kind.
func statusFor(err error) (int, string) {
	var he *httpError
	if errors.As(err, &he) {
		return he.status, he.kind
	}

	kind := eos_err.KindName(err)
	switch eos_err.KindOf(err) {
	case eos_err.ErrConfirmationRequired:
		return http.StatusPreconditionFailed, kind
	case eos_err.ErrVolumeNotFound:
		return http.StatusNotFound, kind
	case eos_err.ErrSystemVolumeProtected:
		return http.StatusForbidden, kind
	case eos_err.ErrEnumerationFailure:
		return http.StatusServiceUnavailable, kind
	default:
		return http.StatusInternalServerError, kind
	}
}

func errorBody(err error) *ErrorBody {
	if err == nil {
		return nil
	}
	_, kind := statusFor(err)
	return &ErrorBody{Kind: kind, Error: err.Error()}
}
