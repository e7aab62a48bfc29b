package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a failed write or read. The HTTP layer maps codes to
// status codes, so a code is part of the public contract.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeForbidden          ErrorCode = "forbidden"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeInternal           ErrorCode = "internal"
)

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrValidation = &Error{Code: CodeValidation}
	ErrNotFound   = &Error{Code: CodeNotFound}
	ErrConflict   = &Error{Code: CodeConflict}
	ErrForbidden  = &Error{Code: CodeForbidden}
)

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on code alone so callers can test against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t != nil && t.Code == e.Code
}

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

func Errorf(code ErrorCode, op, format string, args ...any) error {
	return NewError(code, op, fmt.Sprintf(format, args...), nil)
}

// Wrap keeps err as the cause. nil stays nil.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// CodeOf returns the outermost code in the chain, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// Retryable reports whether the same request may succeed if sent again.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeRetryable, CodeConflict:
		return true
	}
	return false
}
