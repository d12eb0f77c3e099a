package client

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationFailed is wrapped by the [RequestError] returned when
	// the identity exchange response carries no session token.
	ErrAuthenticationFailed = errors.New("couldn't authenticate")

	// ErrSuperlikeLimitExceeded is wrapped by the [RequestError] returned
	// when the API accepts a superlike call but reports the daily limit as
	// exhausted.
	ErrSuperlikeLimitExceeded = errors.New("superlike limit exceeded")
)

// InitializationError reports misuse of the client: a request issued
// before a session token is available, a session created without any
// credentials, or a client that was never connected. It never originates
// from the remote service and is never retried.
type InitializationError struct {
	Message string
}

func (e *InitializationError) Error() string {
	return "initialization error: " + e.Message
}

// RequestError reports a failed call to the remote service. StatusCode is
// zero for domain-level rejections of an otherwise successful response.
type RequestError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}

	if e.StatusCode == 0 {
		return "request error: " + msg
	}

	return fmt.Sprintf("request error: status %d: %s", e.StatusCode, msg)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsInitializationError reports whether err is or wraps an [InitializationError].
func IsInitializationError(err error) bool {
	var initErr *InitializationError
	return errors.As(err, &initErr)
}

// IsRequestError reports whether err is or wraps a [RequestError].
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

// StatusCode returns the HTTP status carried by a [RequestError] in err's
// chain, or zero.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

func newInitializationError(msg string) error {
	return &InitializationError{Message: msg}
}
