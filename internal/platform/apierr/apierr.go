package apierr

import (
	"errors"
	"fmt"
	"net/http"

	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// From classifies err into an HTTP status and stable error code. Errors that
// already are *Error pass through unchanged.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	code := domainagg.CodeOf(err)
	switch code {
	case domainagg.CodeNotFound:
		return New(http.StatusNotFound, string(code), err)
	case domainagg.CodeValidation:
		return New(http.StatusBadRequest, string(code), err)
	case domainagg.CodeConflict, domainagg.CodePreconditionFailed:
		return New(http.StatusConflict, string(code), err)
	case domainagg.CodeForbidden:
		return New(http.StatusForbidden, string(code), err)
	case domainagg.CodeUnauthorized:
		return New(http.StatusUnauthorized, string(code), err)
	case domainagg.CodeRetryable:
		return New(http.StatusServiceUnavailable, string(code), err)
	default:
		return New(http.StatusInternalServerError, string(domainagg.CodeInternal), errors.New("internal error"))
	}
}
