// Package apierr defines the sentinel error taxonomy shared by the request
// path and the background tasks. Handlers translate these into HTTP
// responses; background tasks only log them.
package apierr

import (
	"fmt"
	"net/http"
)

// Kind identifies one of the error categories from the error handling design.
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindAuth       Kind = "auth_error"
	KindNotFound   Kind = "not_found_error"
	KindUpstream   Kind = "upstream_error"
	KindParse      Kind = "parse_error"
	KindStorage    Kind = "storage_error"
)

// Error is the common shape for every sentinel error kind below; the
// constructors (ValidationError, AuthError, ...) all return *Error. Callers
// match it with errors.As into *Error, or check a kind with IsKind.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind Kind, status int, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Status: status, Cause: cause}
}

// ValidationError reports malformed input. Never retried. Surfaces 400.
func ValidationError(msg string) *Error {
	return newErr(KindValidation, http.StatusBadRequest, msg, nil)
}

// AuthError reports a missing/invalid/expired token or unknown user.
// Surfaces 401; a disabled account uses DisabledAccountError (403) instead.
func AuthError(msg string) *Error {
	return newErr(KindAuth, http.StatusUnauthorized, msg, nil)
}

// DisabledAccountError reports an authenticated but deactivated user. 403.
func DisabledAccountError(msg string) *Error {
	return newErr(KindAuth, http.StatusForbidden, msg, nil)
}

// NotFoundError reports an unknown id. Surfaces 404.
func NotFoundError(msg string) *Error {
	return newErr(KindNotFound, http.StatusNotFound, msg, nil)
}

// UpstreamErrorf wraps an LLM/embedding transport failure. Surfaces 500 on
// the request path; logged and swallowed in background tasks.
func UpstreamErrorf(cause error, format string, args ...any) *Error {
	return newErr(KindUpstream, http.StatusInternalServerError, fmt.Sprintf(format, args...), cause)
}

// ParseErrorf reports an LLM reply that could not be coerced to JSON.
func ParseErrorf(cause error, format string, args ...any) *Error {
	return newErr(KindParse, http.StatusInternalServerError, fmt.Sprintf(format, args...), cause)
}

// StorageErrorf wraps a transaction failure. Surfaces 500 on request paths;
// logged in background tasks.
func StorageErrorf(cause error, format string, args ...any) *Error {
	return newErr(KindStorage, http.StatusInternalServerError, fmt.Sprintf(format, args...), cause)
}

// IsKind reports whether err (or anything it wraps) is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == k
}
