package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind is the category of a pipeline failure.
type ErrorKind string

const (
	// ErrorKindMalformedEnvelope means the JSON backend body is not valid JSON.
	ErrorKindMalformedEnvelope ErrorKind = "malformed_envelope"

	// ErrorKindMissingOkField means the JSON envelope has no top-level "Ok" key.
	ErrorKindMissingOkField ErrorKind = "missing_ok_field"

	// ErrorKindMissingField means a projected JSON field is absent.
	ErrorKindMissingField ErrorKind = "missing_field"

	// ErrorKindBackendUnavailable covers transport failures and non-2xx answers.
	ErrorKindBackendUnavailable ErrorKind = "backend_unavailable"

	// ErrorKindInvalidRequest means the pipeline input was rejected before any I/O.
	ErrorKindInvalidRequest ErrorKind = "invalid_request"

	// ErrorKindRouteStopped means the route was stopped by an operator.
	ErrorKindRouteStopped ErrorKind = "route_stopped"

	// ErrorKindInternal covers failures that carry no pipeline classification.
	ErrorKindInternal ErrorKind = "internal"
)

// PipelineError is the failure value returned by every pipeline entry point.
type PipelineError struct {
	// Kind is the category of failure
	Kind ErrorKind `json:"kind"`

	// Field names the missing JSON field for ErrorKindMissingField
	Field string `json:"field,omitempty"`

	// Message is the original error text
	Message string `json:"message"`

	// Route is the route that was executing
	Route string `json:"route,omitempty"`

	// Elapsed is the time spent in the pipeline before it failed
	Elapsed time.Duration `json:"-"`

	// StatusCode is the backend HTTP status, zero when none was received
	StatusCode int `json:"-"`

	// Err is the underlying cause, if any
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the status the front door answers with.
func (e *PipelineError) HTTPStatusCode() int {
	switch e.Kind {
	case ErrorKindInvalidRequest:
		return http.StatusBadRequest
	case ErrorKindRouteStopped:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewPipelineError creates a new pipeline error.
func NewPipelineError(kind ErrorKind, message string) *PipelineError {
	return &PipelineError{
		Kind:    kind,
		Message: message,
	}
}

// WithField records the name of the missing field.
func (e *PipelineError) WithField(field string) *PipelineError {
	e.Field = field
	return e
}

// WithRoute records the route that failed.
func (e *PipelineError) WithRoute(route string) *PipelineError {
	e.Route = route
	return e
}

// WithElapsed records the elapsed pipeline time.
func (e *PipelineError) WithElapsed(d time.Duration) *PipelineError {
	e.Elapsed = d
	return e
}

// WithStatusCode records the backend HTTP status.
func (e *PipelineError) WithStatusCode(code int) *PipelineError {
	e.StatusCode = code
	return e
}

// WithCause attaches the underlying error.
func (e *PipelineError) WithCause(err error) *PipelineError {
	e.Err = err
	return e
}

// ErrMalformedEnvelope reports a JSON body that does not parse.
func ErrMalformedEnvelope(err error) *PipelineError {
	return NewPipelineError(ErrorKindMalformedEnvelope, err.Error()).WithCause(err)
}

// ErrMissingOkField reports an envelope without its "Ok" wrapper.
func ErrMissingOkField() *PipelineError {
	return NewPipelineError(ErrorKindMissingOkField, "Invalid response format: 'Ok' field not found")
}

// ErrMissingField reports an absent projected field.
func ErrMissingField(name string) *PipelineError {
	return NewPipelineError(ErrorKindMissingField, fmt.Sprintf("field %q not found in 'Ok' object", name)).
		WithField(name)
}

// ErrBackendUnavailable wraps a transport or status failure of the backend.
func ErrBackendUnavailable(err error) *PipelineError {
	return NewPipelineError(ErrorKindBackendUnavailable, err.Error()).WithCause(err)
}

// ErrInternal wraps an unclassified failure.
func ErrInternal(err error) *PipelineError {
	return NewPipelineError(ErrorKindInternal, err.Error()).WithCause(err)
}

// ErrInvalidRequest reports pipeline input rejected before any I/O.
func ErrInvalidRequest(message string) *PipelineError {
	return NewPipelineError(ErrorKindInvalidRequest, message)
}

// ErrRouteStopped reports an execution attempted on a stopped route.
func ErrRouteStopped(route string) *PipelineError {
	return NewPipelineError(ErrorKindRouteStopped, fmt.Sprintf("route %s is stopped", route)).WithRoute(route)
}

// AsPipelineError extracts a *PipelineError from an error chain.
func AsPipelineError(err error) (*PipelineError, bool) {
	var pe *PipelineError
	ok := errors.As(err, &pe)
	return pe, ok
}

// IsKind reports whether err is a pipeline error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	pe, ok := AsPipelineError(err)
	return ok && pe.Kind == kind
}
