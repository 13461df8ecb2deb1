// Package errors provides the typed error taxonomy shared across services.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// Standard error functions
var (
	Is     = errors.Is
	As     = errors.As
	Join   = errors.Join
	Unwrap = errors.Unwrap
)

// Error is a kind-tagged error used to classify failures at service
// boundaries. Two errors are considered equal by errors.Is when their
// kinds match, regardless of cause or message.
type Error struct {
	// Kind is the failure class, e.g. "NotFound" or "GatewayUnavailable".
	Kind string `json:"kind"`
	// Message is the human readable description of the failure.
	Message string `json:"message"`

	trace []byte
	cause error
}

var _ error = (*Error)(nil)

// Failure classes used by the order gateway subsystem.
var (
	// Invalid marks a request that failed validation before any work happened.
	Invalid = NewWithKind("Invalid")
	// NotFound marks a missing precondition: unknown client, UCC or mandate
	// missing, order absent or not owned by the caller.
	NotFound = NewWithKind("NotFound")
	// AuthenticationFailed marks a failed gateway token handshake.
	AuthenticationFailed = NewWithKind("AuthenticationFailed")
	// GatewayUnavailable marks a connection failure or timeout talking to the
	// gateway; the gateway's decision is unknown.
	GatewayUnavailable = NewWithKind("GatewayUnavailable")
	// GatewayError marks a non-success transport status from the gateway.
	GatewayError = NewWithKind("GatewayError")
	// DecodeError marks a gateway response we could not parse. Treated like a
	// transport failure, never like a business rejection.
	DecodeError = NewWithKind("DecodeError")
)

func New(message string) *Error {
	return &Error{Kind: "Unknown", Message: message}
}

func NewWithKind(kind string) *Error {
	return &Error{Kind: kind}
}

func Wrap(err error) *Error {
	return &Error{cause: err}
}

// Error implements error
func (e *Error) Error() string {
	str := fmt.Sprintf("[%s] ", e.Kind)
	if e.Message != "" {
		str += e.Message
	}
	if e.cause != nil {
		str += fmt.Sprintf(" (%s)", e.cause)
	}
	if len(e.trace) > 0 {
		str = str + fmt.Sprintf("\n\nTrace: %s", string(e.trace))
	}
	return str
}

// Reason returns a copy of the error with kind set to given value
func (e *Error) Reason(kind string) *Error {
	err := *e
	err.Kind = kind
	return &err
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Cause returns a copy of the error with the given cause attached.
func (e *Error) Cause(cause error) *Error {
	err := *e
	err.cause = cause
	return &err
}

// Explain makes a copy of the error with given message
func (e *Error) Explain(message string, args ...any) *Error {
	err := *e
	err.Message = fmt.Sprintf(message, args...)
	return &err
}

// Trace sets the error stack trace
func (e *Error) Trace() *Error {
	stack := make([]byte, 2048)
	n := runtime.Stack(stack, false)
	e.trace = stack[:n]
	return e
}

// Is implements the needed interface for errors.Is; kinds are compared.
func (e *Error) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	if other, ok := target.(*Error); ok {
		return other.Kind == e.Kind
	}
	if e.cause != nil {
		return Is(e.cause, target)
	}
	return false
}

// HTTPStatus maps a failure class to the status code the API layer returns.
func HTTPStatus(err error) int {
	var e *Error
	if !As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case "Invalid":
		return http.StatusBadRequest
	case "NotFound":
		return http.StatusNotFound
	case "AuthenticationFailed":
		return http.StatusBadGateway
	case "GatewayUnavailable", "DecodeError":
		return http.StatusServiceUnavailable
	case "GatewayError":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
