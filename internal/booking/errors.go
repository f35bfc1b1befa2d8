package booking

import (
	"errors"
	"fmt"
	"net/http"
)

// InvalidRequestError reports a missing or malformed field in an inbound call.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

// HTTPStatus returns the status transports should answer with.
func (e *InvalidRequestError) HTTPStatus() int {
	return http.StatusBadRequest
}

// UpstreamError reports a failed or timed out calendar call.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("calendar %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status transports should answer with.
func (e *UpstreamError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// Message returns the cause's message without the operation prefix.
func (e *UpstreamError) Message() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

func invalid(format string, args ...any) *InvalidRequestError {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}

// StatusCode maps an error returned by this package to an HTTP status.
// nil maps to 200.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ire *InvalidRequestError
	if errors.As(err, &ire) {
		return ire.HTTPStatus()
	}
	return http.StatusInternalServerError
}
