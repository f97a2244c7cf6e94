package connection

import (
	"errors"
	"fmt"
	"time"
)

// Close errors.
var (
	// ErrConnectionLost reports an abnormal close.
	ErrConnectionLost = errors.New("connection lost")

	// ErrConnectionClosed reports a clean close.
	ErrConnectionClosed = errors.New("connection closed")
)

// CloseKind classifies a close.
type CloseKind uint8

const (
	CloseClean CloseKind = iota
	CloseAbnormal
)

// String returns the close kind name.
func (k CloseKind) String() string {
	switch k {
	case CloseClean:
		return "CLEAN"
	case CloseAbnormal:
		return "ABNORMAL"
	default:
		return "UNKNOWN"
	}
}

// CloseEvent describes how a session ended. It is reported, never retried.
type CloseEvent struct {
	Kind CloseKind
	Code int
	At   time.Time
}

func (e *CloseEvent) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Unwrap(), e.Code)
}

// Unwrap returns ErrConnectionClosed or ErrConnectionLost.
func (e *CloseEvent) Unwrap() error {
	if e.Kind == CloseClean {
		return ErrConnectionClosed
	}
	return ErrConnectionLost
}
