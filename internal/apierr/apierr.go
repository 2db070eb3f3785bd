package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeInvalidRequest  = "invalid_request"
	CodeUnauthenticated = "unauthenticated"
	CodeNotFound        = "not_found"
	CodeProviderFailed  = "provider_failed"
	CodeInternal        = "internal"
)

// Error carries the HTTP status a refusal should be rendered with.
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

func BadRequest(err error) *Error { return New(http.StatusBadRequest, CodeInvalidRequest, err) }

func Unauthenticated(msg string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthenticated, errors.New(msg))
}

func NotFound(msg string) *Error { return New(http.StatusNotFound, CodeNotFound, errors.New(msg)) }

func ProviderFailed(err error) *Error { return New(http.StatusBadGateway, CodeProviderFailed, err) }

func Internal(err error) *Error { return New(http.StatusInternalServerError, CodeInternal, err) }

// StatusOf maps any error to the status it should be rendered with.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}
