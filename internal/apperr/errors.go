// Package apperr defines the error kinds surfaced by the simulation core.
//
// Every component-level failure is wrapped in one of these kinds so the API
// layer can map it to an HTTP status without inspecting error strings.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error the way the core's callers need to react to it.
type Code int

const (
	// Validation is a rule or quota rejection. Surfaces as 400.
	Validation Code = iota
	// Domain is an insufficient-balance, illegal-state-transition, not-owner,
	// self-buy, not-found, or invalid-solution failure. Surfaces as 400.
	Domain
	// Auth is a missing or unknown bearer token. Surfaces as 401.
	Auth
	// Forbidden is an actor mismatch or a route disabled outside dev mode.
	// Surfaces as 403.
	Forbidden
	// NotFound is a missing resource. Surfaces as 404.
	NotFound
	// Conflict is a concurrent-advance or unique-constraint clash. Surfaces as 409.
	Conflict
	// Internal is a store or broadcaster failure. Surfaces as 500.
	Internal
)

func (c Code) String() string {
	switch c {
	case Validation:
		return "validation"
	case Domain:
		return "domain"
	case Auth:
		return "auth"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a typed core error. It wraps an underlying cause so %w works.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Validationf builds a Validation error.
func Validationf(format string, args ...any) *Error { return newf(Validation, format, args...) }

// Domainf builds a Domain error.
func Domainf(format string, args ...any) *Error { return newf(Domain, format, args...) }

// Authf builds an Auth error.
func Authf(format string, args ...any) *Error { return newf(Auth, format, args...) }

// Forbiddenf builds a Forbidden error.
func Forbiddenf(format string, args ...any) *Error { return newf(Forbidden, format, args...) }

// NotFoundf builds a NotFound error.
func NotFoundf(format string, args ...any) *Error { return newf(NotFound, format, args...) }

// Conflictf builds a Conflict error.
func Conflictf(format string, args ...any) *Error { return newf(Conflict, format, args...) }

// Internalf wraps err as an Internal error.
func Internalf(err error, format string, args ...any) *Error {
	return &Error{Code: Internal, Msg: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the Code of err, defaulting to Internal for untyped errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}
