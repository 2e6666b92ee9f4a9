package handler

import (
	"errors"
	"net/http"
)

var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError is an error that carries the status code and the client-facing
// message written into the error envelope. Cause, when set, is logged but
// never shown to the client.
type HTTPError struct {
	Code    int
	Message string
	Cause   error
}

func (e HTTPError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e HTTPError) Unwrap() error { return e.Cause }

// Is matches another HTTPError by code and message, ignoring the cause.
func (e HTTPError) Is(target error) bool {
	t, ok := target.(HTTPError)
	return ok && t.Code == e.Code && t.Message == e.Message
}

// WithCause returns a copy of e wrapping err.
func (e HTTPError) WithCause(err error) HTTPError {
	e.Cause = err
	return e
}

// NewHTTPError creates a custom HTTP error.
//
// Example:
//
//	err := handler.NewHTTPError(http.StatusConflict, "User already exists")
func NewHTTPError(code int, message string) HTTPError {
	return HTTPError{Code: code, Message: message}
}

var (
	ErrBadRequest           = NewHTTPError(http.StatusBadRequest, "Bad request")
	ErrUnauthorized         = NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	ErrForbidden            = NewHTTPError(http.StatusForbidden, "Forbidden")
	ErrNotFound             = NewHTTPError(http.StatusNotFound, "Not found")
	ErrConflict             = NewHTTPError(http.StatusConflict, "Conflict")
	ErrUnsupportedMediaType = NewHTTPError(http.StatusUnsupportedMediaType, "Unsupported media type")
	ErrTooManyRequests      = NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later")
	ErrInternalServerError  = NewHTTPError(http.StatusInternalServerError, "Internal server error")
)
