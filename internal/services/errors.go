package services

import (
	"errors"
	"strings"
)

// ErrInvalidCredentials covers both an unknown email and a wrong password.
// The two cases are deliberately indistinguishable to callers so that
// login responses cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUnknownUser is returned by the chat flow when no account matches the
// supplied email.
var ErrUnknownUser = errors.New("unknown user")

// ErrUpstreamTimeout is returned when the completion API does not answer
// within the configured deadline.
var ErrUpstreamTimeout = errors.New("upstream timeout")

// ValidationError reports every missing required field of a request at
// once, rather than short-circuiting on the first.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return "missing required field: " + e.Fields[0]
	}
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}
