// Package apperror defines the single tagged error type shared by every flow
// and its mapping onto HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
)

// Public error codes
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidEmailDomain = "INVALID_EMAIL_DOMAIN"
	CodeInvalidOTP         = "INVALID_OTP"
	CodeMemberNotFound     = "MEMBER_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeMemberInactive     = "MEMBER_INACTIVE"
	CodeEmailNotConfirmed  = "EMAIL_NOT_CONFIRMED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeEmailTaken         = "EMAIL_ALREADY_REGISTERED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeDeliveryFailed     = "DELIVERY_FAILED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Error is the application error carried from flows to the HTTP edge.
// Message is safe to show to clients; Err holds internal detail for logs.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Kind == t.Kind
}

// Wrap returns a copy of e carrying err as internal detail
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// New creates an error of the given kind
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation builds a 400 VALIDATION_ERROR
func Validation(message string) *Error {
	return New(KindValidation, CodeValidation, message)
}

// NotFound builds a 404 error for the named entity
func NotFound(entity string) *Error {
	return New(KindNotFound, CodeNotFound, entity+" not found")
}

// Conflict builds a 409 CONFLICT error
func Conflict(message string) *Error {
	return New(KindConflict, CodeConflict, message)
}

// Forbidden builds a 403 FORBIDDEN error
func Forbidden(message string) *Error {
	return New(KindForbidden, CodeForbidden, message)
}

// Unauthorized builds a 401 UNAUTHORIZED error
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, CodeUnauthorized, message)
}

// Unexpected wraps an internal failure without exposing it
func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Code: CodeInternal, Message: "Internal server error", Err: err}
}

// Sentinels shared by the auth flows.
var (
	InvalidOTP         = New(KindValidation, CodeInvalidOTP, "OTP is incorrect or expired")
	InvalidCredentials = New(KindUnauthorized, CodeInvalidCredentials, "Email or password incorrect")
	InvalidEmailDomain = New(KindValidation, CodeInvalidEmailDomain, "Email domain not in organization's allowed list")
	MemberNotFound     = New(KindNotFound, CodeMemberNotFound, "Member does not exist")
	MemberInactive     = New(KindForbidden, CodeMemberInactive, "Member account is inactive")
	EmailNotConfirmed  = New(KindForbidden, CodeEmailNotConfirmed, "Member's email address has not been confirmed")
	EmailTaken         = New(KindConflict, CodeEmailTaken, "Email already registered")
	RateLimited        = New(KindRateLimited, CodeRateLimited, "OTP request rate limit exceeded. Try again later.")
	DeliveryFailed     = New(KindUnexpected, CodeDeliveryFailed, "Failed to deliver OTP")
	InvalidToken       = New(KindUnauthorized, CodeUnauthorized, "Invalid or expired token")
)

// From extracts an *Error, converting anything else into an unexpected error.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Unexpected(err)
}

// Status maps an error onto its HTTP status code
func Status(err error) int {
	switch From(err).Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
