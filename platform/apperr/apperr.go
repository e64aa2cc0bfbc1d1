// Package apperr provides standardized domain error types for the application.
// Domain services return these typed errors, and the HTTP layer middleware
// automatically maps them to appropriate HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindNotFound indicates a resource was not found.
	KindNotFound
	// KindValidation indicates invalid input data.
	KindValidation
	// KindConflict indicates a conflict with existing state (e.g., duplicate).
	KindConflict
	// KindForbidden indicates the action is not allowed for the user.
	KindForbidden
	// KindUnauthorized indicates authentication is required or failed.
	KindUnauthorized
	// KindBadRequest indicates a malformed or invalid request.
	KindBadRequest
	// KindInternal indicates an unexpected internal error.
	KindInternal
	// KindUpstream indicates a failure in an external collaborator
	// (social platform API, reply generator).
	KindUpstream
	// KindUnavailable indicates an optional subsystem is not configured.
	KindUnavailable
)

// Stable machine-readable codes returned alongside the message.
const (
	CodeValidation       = "validation_error"
	CodeNotFound         = "not_found"
	CodeTenantNotFound   = "tenant_not_found"
	CodeTenantInactive   = "tenant_inactive"
	CodeNotAMember       = "not_a_member"
	CodePermissionDenied = "permission_denied"
	CodeUnauthorized     = "unauthorized"
	CodeAlreadyReplied   = "already_replied"
	CodeDuplicateTenant  = "duplicate_tenant"
	CodeConflict         = "conflict"
	CodeConnector        = "connector_error"
	CodeGeneration       = "generation_error"
	CodeUnavailable      = "unavailable"
	CodeInternal         = "internal_error"
)

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Op      string      // Operation that failed (optional)
	Err     error       // Underlying error (optional)
	Details interface{} // Additional details for response (optional)

	retryable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindInternal:
		return http.StatusInternalServerError
	case KindUpstream:
		return http.StatusBadGateway
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// Retryable reports whether the caller may retry the same operation later.
func (e *Error) Retryable() bool {
	return e.retryable
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Code: defaultCode(kind)}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err, Code: defaultCode(kind)}
}

// WithOp returns a copy of the error with the operation set.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// WithCode overrides the machine-readable code.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// AsRetryable marks the error as transient.
func (e *Error) AsRetryable() *Error {
	e.retryable = true
	return e
}

func defaultCode(kind Kind) string {
	switch kind {
	case KindNotFound:
		return CodeNotFound
	case KindValidation, KindBadRequest:
		return CodeValidation
	case KindConflict:
		return CodeConflict
	case KindForbidden:
		return CodePermissionDenied
	case KindUnauthorized:
		return CodeUnauthorized
	case KindUpstream:
		return CodeConnector
	case KindUnavailable:
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

// Convenience constructors for common error types.

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Conflict creates a conflict error (e.g., duplicate resource).
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Forbidden creates a forbidden error.
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// BadRequest creates a bad request error.
func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

// Internal creates an internal server error.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// Upstream creates an error for a failed external call.
func Upstream(code, message string, err error) *Error {
	return Wrap(KindUpstream, message, err).WithCode(code)
}

// Unavailable creates an error for a subsystem that is not configured.
func Unavailable(message string) *Error {
	return New(KindUnavailable, message)
}

// Domain-specific constructors shared by several modules.

// TenantNotFound is returned when a claimed tenant does not exist.
func TenantNotFound() *Error {
	return NotFound("tenant not found").WithCode(CodeTenantNotFound)
}

// TenantInactive is returned when a tenant exists but is not active.
func TenantInactive() *Error {
	return Conflict("tenant is not active").WithCode(CodeTenantInactive)
}

// NotAMember is returned when a principal has no active membership in a tenant.
func NotAMember() *Error {
	return Forbidden("not a member of this tenant").WithCode(CodeNotAMember)
}

// PermissionDenied is returned when a role lacks the requested capability.
func PermissionDenied() *Error {
	return Forbidden("permission denied").WithCode(CodePermissionDenied)
}

// AlreadyReplied is returned when a reply is attempted on an answered comment.
func AlreadyReplied() *Error {
	return Conflict("comment already replied").WithCode(CodeAlreadyReplied)
}

// DuplicateTenant is returned when a tenant slug or contact email is taken.
func DuplicateTenant() *Error {
	return Conflict("tenant with this name or email already exists").WithCode(CodeDuplicateTenant)
}

// GetKind extracts the error kind from an error chain.
// Returns KindUnknown if no *Error is present.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// GetCode extracts the machine-readable code from an error chain.
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is checks if err is an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// IsRetryable reports whether err carries a retryable *Error.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	return false
}
