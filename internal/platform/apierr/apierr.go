// Package apierr carries the service error taxonomy to the HTTP layer.
// Services wrap causes with a status and a stable machine code
// (invalid_query, user_not_found, retrieval_failed, ...); handlers map the
// wrapped value onto the wire without inspecting the cause.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	case e.Code != "":
		return e.Code
	default:
		return fmt.Sprintf("api error (%d)", e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Resolve extracts the HTTP mapping from err. Anything in the chain that is
// not an *Error collapses to 500 internal_error with err itself as the
// cause, so an unwrapped failure can never leak a misleading status.
func Resolve(err error) (status int, code string, cause error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status, apiErr.Code, apiErr.Err
	}
	return http.StatusInternalServerError, "internal_error", err
}
