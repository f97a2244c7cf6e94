package service

import (
	"context"
	"errors"
)

// Service errors.
var (
	ErrNotConnected   = errors.New("not connected")
	ErrStopped        = errors.New("engine stopped")
	ErrAlreadyRunning = errors.New("engine already running")
	ErrNoSettings     = errors.New("settings store not configured")
)

// SettingsStore loads and saves the UI settings blob. Save returns the
// blob as stored, which may be normalized.
type SettingsStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, blob []byte) ([]byte, error)
}
