package domain

import (
	stderr "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// ErrRecordNotFound keeps repository adapters independent of driver errors.
var ErrRecordNotFound = errors.New("record not found")

// Error taxonomy shared by every module. Handlers render these through
// common.ResponseError; guards add redirect hints on top.
var (
	ErrUnauthenticated = DetailedError{
		IDField:         "UNAUTHENTICATED",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Authentication is required",
		StatusCodeField: http.StatusUnauthorized,
	}

	ErrPermissionDenied = DetailedError{
		IDField:         "PERMISSION_DENIED",
		StatusDescField: http.StatusText(http.StatusForbidden),
		ErrorField:      "You do not have permission to perform this action",
		StatusCodeField: http.StatusForbidden,
	}

	ErrProtectedEntity = DetailedError{
		IDField:         "PROTECTED_ENTITY",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "This entity is protected and cannot be changed this way",
		StatusCodeField: http.StatusConflict,
	}

	ErrBackendFailure = DetailedError{
		IDField:         "BACKEND_FAILURE",
		StatusDescField: http.StatusText(http.StatusBadGateway),
		ErrorField:      "The data backend failed to complete the request",
		StatusCodeField: http.StatusBadGateway,
	}

	ErrValidation = DetailedError{
		IDField:         "VALIDATION_FAILED",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "The request did not pass validation",
		StatusCodeField: http.StatusBadRequest,
	}

	ErrPermissionsUnresolved = DetailedError{
		IDField:         "PERMISSIONS_UNRESOLVED",
		StatusDescField: http.StatusText(http.StatusServiceUnavailable),
		ErrorField:      "Permissions are still being resolved, please retry",
		StatusCodeField: http.StatusServiceUnavailable,
	}
)

var (
	ErrNotFound = DetailedError{
		IDField:         "NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "The requested resource could not be found",
		StatusCodeField: http.StatusNotFound,
	}

	ErrTooManyRequests = DetailedError{
		IDField:         "TOO_MANY_REQUESTS",
		StatusDescField: http.StatusText(http.StatusTooManyRequests),
		ErrorField:      "Too many requests, please try again later",
		StatusCodeField: http.StatusTooManyRequests,
	}

	ErrInternalServerError = DetailedError{
		IDField:         "INTERNAL_SERVER_ERROR",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "An internal server error occurred, please contact the system administrator",
		StatusCodeField: http.StatusInternalServerError,
	}

	ErrBadRequest = DetailedError{
		IDField:         "BAD_REQUEST",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "The request was malformed or contained invalid parameters",
		StatusCodeField: http.StatusBadRequest,
	}

	ErrConflict = DetailedError{
		IDField:         "CONFLICT",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "The resource could not be created due to a conflict",
		StatusCodeField: http.StatusConflict,
	}
)

// BackendError maps a repository error onto the taxonomy. Detailed errors
// pass through untouched, a missing record becomes notFound, anything else
// is a backend failure.
func BackendError(err error, notFound *DetailedError) error {
	if err == nil {
		return nil
	}
	if de := (*DetailedError)(nil); stderr.As(err, &de) {
		return de
	}
	if de := (DetailedError{}); stderr.As(err, &de) {
		return &de
	}
	if stderr.Is(err, ErrRecordNotFound) && notFound != nil {
		return notFound.WithWrap(err)
	}
	return ErrBackendFailure.WithWrap(err)
}

// DetailedError is the single error shape that crosses layer boundaries.
// IDField is stable and machine readable, ErrorField is shown to users and
// DebugField never leaves the process.
type DetailedError struct {
	IDField         string                 `json:"id,omitempty"`
	StatusCodeField int                    `json:"code,omitempty"`
	StatusDescField string                 `json:"status,omitempty"`
	RIDField        string                 `json:"request,omitempty"`
	ReasonField     string                 `json:"reason,omitempty"`
	DebugField      string                 `json:"debug,omitempty"`
	ErrorField      string                 `json:"message"`
	DetailsField    map[string]interface{} `json:"details,omitempty"`

	err error
}

func (e DetailedError) Unwrap() error { return e.err }

func (e DetailedError) Error() string { return e.ErrorField }
func (e DetailedError) ID() string { return e.IDField }
func (e DetailedError) Status() string { return e.StatusDescField }
func (e DetailedError) StatusCode() int { return e.StatusCodeField }
func (e DetailedError) RequestID() string { return e.RIDField }
func (e DetailedError) Reason() string { return e.ReasonField }
func (e DetailedError) Debug() string { return e.DebugField }
func (e DetailedError) Details() map[string]interface{} { return e.DetailsField }

// StackTrace returns the trace captured by WithTrace, if any.
func (e *DetailedError) StackTrace() (trace errors.StackTrace) {
	if st := stackTracer(nil); stderr.As(e.err, &st) {
		trace = st.StackTrace()
	}
	return
}

// Is compares on identity fields only, so a value returned by any of the
// With* builders still matches its sentinel.
func (e DetailedError) Is(err error) bool {
	var other DetailedError
	switch te := err.(type) {
	case DetailedError:
		other = te
	case *DetailedError:
		if te == nil {
			return false
		}
		other = *te
	default:
		return false
	}
	return e.IDField == other.IDField && e.StatusCodeField == other.StatusCodeField
}

func (e DetailedError) WithWrap(err error) *DetailedError {
	e.err = err
	return &e
}

func (e DetailedError) WithTrace(err error) *DetailedError {
	e.err = errors.WithStack(err)
	return &e
}

func (e DetailedError) WithRequestID(rid string) *DetailedError {
	e.RIDField = rid
	return &e
}

func (e DetailedError) WithReason(reason string) *DetailedError {
	e.ReasonField = reason
	return &e
}

func (e DetailedError) WithReasonf(reason string, args ...interface{}) *DetailedError {
	return e.WithReason(fmt.Sprintf(reason, args...))
}

func (e DetailedError) WithError(message string) *DetailedError {
	e.ErrorField = message
	return &e
}

func (e DetailedError) WithErrorf(message string, args ...interface{}) *DetailedError {
	return e.WithError(fmt.Sprintf(message, args...))
}

func (e DetailedError) WithDebug(debug string) *DetailedError {
	e.DebugField = debug
	return &e
}

// WithDetail copies the details map so sentinels are never mutated.
func (e DetailedError) WithDetail(key string, detail interface{}) *DetailedError {
	details := make(map[string]interface{}, len(e.DetailsField)+1)
	for k, v := range e.DetailsField {
		details[k] = v
	}
	details[key] = detail
	e.DetailsField = details
	return &e
}

func (e DetailedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "id=%s rid=%s error=%s reason=%s details=%+v debug=%s\n",
				e.IDField, e.RIDField, e.ErrorField, e.ReasonField, e.DetailsField, e.DebugField)
			e.StackTrace().Format(s, verb)
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.ErrorField)
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.ErrorField)
	}
}

// AsDetailedError converts any error into a DetailedError. Unknown errors
// become INTERNAL_SERVER_ERROR with the original kept as the wrapped cause.
func AsDetailedError(err error) *DetailedError {
	if err == nil {
		return nil
	}
	if de := (*DetailedError)(nil); stderr.As(err, &de) {
		return de
	}
	var de DetailedError
	if stderr.As(err, &de) {
		return &de
	}
	return ErrInternalServerError.WithWrap(err)
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}
