// Package apperr defines the application failures that the HTTP boundary
// knows how to render as {"message", "details"}.
package apperr

import (
	"errors"
	"net/http"
)

// Details is the optional structured payload of an Error. The only
// implementation is ValidationFields; nil means no details.
type Details interface {
	isDetails()
}

// ValidationFields maps a JSON field path to its failure messages.
type ValidationFields map[string][]string

func (ValidationFields) isDetails() {}

func (v ValidationFields) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

type Error struct {
	Status  int
	Message string
	Details Details
	// Err is the underlying cause, logged but never rendered.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attaches a cause for server-side logs.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Validation(fields ValidationFields) *Error {
	return &Error{Status: http.StatusBadRequest, Message: "Validation failed", Details: fields}
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

func TooManyRequests(message string) *Error {
	return New(http.StatusTooManyRequests, message)
}

func Unavailable(message string) *Error {
	return New(http.StatusServiceUnavailable, message)
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
