package interaction

import (
	"errors"
	"fmt"
)

// Dispatcher errors.
var (
	// ErrRequestFailed matches every error response delivered to a handler.
	ErrRequestFailed = errors.New("request failed")

	// ErrBenignTimeout marks the host's suppressed firmware timeout.
	ErrBenignTimeout = errors.New("benign controller timeout")

	// ErrMethodRequired is returned by Send for an empty method.
	ErrMethodRequired = errors.New("method is required")
)

// RequestError is an error response from the host.
type RequestError struct {
	ID      uint64
	Tag     string
	Method  string
	Code    int
	Message string
}

func (e *RequestError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("JSON-RPC: %s (%s, code %d)", e.Message, e.Method, e.Code)
	}
	return fmt.Sprintf("JSON-RPC: %s (%s)", e.Message, e.Method)
}

// Is reports whether target is ErrRequestFailed.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}
