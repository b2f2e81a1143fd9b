// Package errors defines the structured error taxonomy for the compliance
// service. Computation-local conditions (fenced rules, malformed revisions)
// are absorbed by their components and never reach this package's callers;
// identity and invariant violations are surfaced unmodified.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/openbaseline/compliance/pkg/constants"
)

// AppError is a structured application error carrying a stable code, an HTTP
// status for the transport layer, and optional metadata for logs and events.
type AppError struct {
	Code       constants.ErrorCode
	HTTPStatus int
	Message    string
	cause      error
	metadata   map[string]interface{}
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause attaches an underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.cause = cause
	return e
}

// WithMetadata attaches a key/value pair for structured logging.
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

// Metadata returns all attached metadata.
func (e *AppError) Metadata() map[string]interface{} {
	return e.metadata
}

// New creates an AppError with the given code, status, and message.
func New(code constants.ErrorCode, httpStatus int, message string) *AppError {
	return &AppError{Code: code, HTTPStatus: httpStatus, Message: message}
}

// ErrDatabaseOperation is the sentinel wrapped around storage failures.
var ErrDatabaseOperation = New(constants.ErrCodeInternal, http.StatusInternalServerError, "database operation failed")

// ErrInvalidRequest creates an invalid_request error.
func ErrInvalidRequest(message string) *AppError {
	return New(constants.ErrCodeInvalidRequest, http.StatusBadRequest, message)
}

// ErrProfileNotFound creates a not_found error for a profile.
func ErrProfileNotFound(id uuid.UUID) *AppError {
	return New(constants.ErrCodeNotFound, http.StatusNotFound,
		fmt.Sprintf("profile not found: %s", id)).
		WithMetadata("profile_id", id.String())
}

// ErrPolicyNotFound creates a not_found error for a policy.
func ErrPolicyNotFound(id uuid.UUID) *AppError {
	return New(constants.ErrCodeNotFound, http.StatusNotFound,
		fmt.Sprintf("policy not found: %s", id)).
		WithMetadata("policy_id", id.String())
}

// ErrResultNotFound creates a not_found error for a test result.
func ErrResultNotFound(id uuid.UUID) *AppError {
	return New(constants.ErrCodeNotFound, http.StatusNotFound,
		fmt.Sprintf("test result not found: %s", id)).
		WithMetadata("test_result_id", id.String())
}

// ErrBenchmarkNotFound creates a not_found error for a benchmark.
func ErrBenchmarkNotFound(id uuid.UUID) *AppError {
	return New(constants.ErrCodeNotFound, http.StatusNotFound,
		fmt.Sprintf("benchmark not found: %s", id)).
		WithMetadata("benchmark_id", id.String())
}

// ErrDuplicateResult signals a violation of the (profile, host, end_time)
// natural key. The write is rejected, never silently overwritten.
func ErrDuplicateResult(profileID, hostID uuid.UUID, endTime time.Time) *AppError {
	return New(constants.ErrCodeDuplicateResult, http.StatusConflict,
		fmt.Sprintf("test result already exists for profile %s, host %s at %s",
			profileID, hostID, endTime.UTC().Format(time.RFC3339))).
		WithMetadata("profile_id", profileID.String()).
		WithMetadata("host_id", hostID.String()).
		WithMetadata("end_time", endTime.UTC().Format(time.RFC3339))
}

// ErrMissingAncestor signals a non-canonical profile without a resolvable
// parent. This is an invariant violation and fatal for the computation.
func ErrMissingAncestor(profileID uuid.UUID) *AppError {
	return New(constants.ErrCodeMissingAncestor, http.StatusInternalServerError,
		fmt.Sprintf("non-canonical profile %s has no parent profile", profileID)).
		WithMetadata("profile_id", profileID.String())
}

// ErrMalformedRevision describes a baseline package whose revision could not
// be parsed. Callers log it and skip the descriptor; it never aborts selection.
func ErrMalformedRevision(pkg string) *AppError {
	return New(constants.ErrCodeMalformedRevision, http.StatusUnprocessableEntity,
		fmt.Sprintf("cannot parse package revision from %q", pkg)).
		WithMetadata("package", pkg)
}

// ErrDownloadFailure describes a failed datastream download for a single
// descriptor. Sibling descriptors are unaffected.
func ErrDownloadFailure(pkg string, cause error) *AppError {
	return New(constants.ErrCodeDownloadFailure, http.StatusBadGateway,
		fmt.Sprintf("failed to download datastream for %q", pkg)).
		WithMetadata("package", pkg).
		WithCause(cause)
}

// AsAppError attempts to cast an error to an AppError.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code constants.ErrorCode) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsDuplicateResult reports whether err is a duplicate_result error.
func IsDuplicateResult(err error) bool {
	return HasCode(err, constants.ErrCodeDuplicateResult)
}

// IsNotFound reports whether err is a not_found error.
func IsNotFound(err error) bool {
	return HasCode(err, constants.ErrCodeNotFound)
}
