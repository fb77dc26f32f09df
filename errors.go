package authgate

import (
	"errors"
	"fmt"
)

// ErrorCode classifies authentication and tenant-resolution failures.
// Nothing below the route gate ever receives a raw transport error; all
// provider and network failures are converted to one of these codes at the
// Manager/Resolver boundary.
type ErrorCode string

const (
	// CodeInvalidCredentials is a user-facing failure, retryable by
	// re-entering credentials.
	CodeInvalidCredentials ErrorCode = "invalid_credentials"

	// CodeProviderUnavailable is a transient provider or network failure,
	// surfaced with a generic retry message and not retried automatically.
	CodeProviderUnavailable ErrorCode = "provider_unavailable"

	// CodeSessionExpired means the refresh token was rejected; the session
	// silently transitions to signed-out and the user sees the sign-in
	// redirect, not a raw error.
	CodeSessionExpired ErrorCode = "session_expired"

	// CodeNoActiveSession is a programming-contract violation, e.g.
	// setting tenant context without an authenticated session. Logged,
	// never shown to the user.
	CodeNoActiveSession ErrorCode = "no_active_session"

	// CodeTenantResolutionFailed is non-fatal; it resolves to "no tenant"
	// and drives the tenant-setup redirect rather than an error page.
	CodeTenantResolutionFailed ErrorCode = "tenant_resolution_failed"
)

// Error is the taxonomy error type returned by the SDK's public surface.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authgate: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("authgate: %s", e.Code)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// Is matches errors by code, so callers can write
// errors.Is(err, &authgate.Error{Code: authgate.CodeInvalidCredentials}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError builds a taxonomy error wrapping an optional cause.
func NewError(code ErrorCode, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Err: cause}
}

// CodeOf extracts the taxonomy code from err, or "" if err is not an
// *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ErrInvalidCredentials, ErrProviderUnavailable, ErrSessionExpired,
// ErrNoActiveSession, and ErrTenantResolutionFailed are sentinel values for
// use with errors.Is.
var (
	ErrInvalidCredentials     = &Error{Code: CodeInvalidCredentials}
	ErrProviderUnavailable    = &Error{Code: CodeProviderUnavailable}
	ErrSessionExpired         = &Error{Code: CodeSessionExpired}
	ErrNoActiveSession        = &Error{Code: CodeNoActiveSession}
	ErrTenantResolutionFailed = &Error{Code: CodeTenantResolutionFailed}
)
