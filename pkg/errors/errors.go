// Package errors provides structured error types for nodemap.
//
// Every failure the map engine, the outline parsers, the pipeline and the
// live server report to a user carries a machine-readable [Code]. The CLI
// prints [UserMessage]; the HTTP API maps codes to status codes.
//
// # Error Codes
//
// Codes follow a prefix convention:
//   - INVALID_*: input validation failures
//   - *NOT_FOUND: missing resources
//   - NO_ROOT, INVALID_TARGET: fatal map configuration errors
//   - INTERNAL_ERROR, UNSUPPORTED, TIMEOUT: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNoRoot, "no root item found in %s", path)
//	if errors.Is(err, errors.ErrCodeNoRoot) {
//	    // report the malformed outline
//	}
//
//	err := errors.Wrap(errors.ErrCodeInvalidOutline, cause, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidOutline Code = "INVALID_OUTLINE"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Fatal map configuration errors
	ErrCodeInvalidTarget Code = "INVALID_TARGET"
	ErrCodeNoRoot        Code = "NO_ROOT"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Internal errors
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error carries a Code next to a human-readable message. Cause, when set,
// is reachable through errors.Unwrap.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is New with a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// when there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage strips the code prefix and cause for display. Errors without
// a code print as they are.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Fatal reports whether err prevents a map from being built at all: an
// outline without a root, or a selector matching more than one surface.
func Fatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeNoRoot, ErrCodeInvalidTarget:
		return true
	}
	return false
}
