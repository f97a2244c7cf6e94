package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// ClientState is the runtime state kept between client runs.
type ClientState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Host and Port address the last host synchronized with.
	Host string `json:"host"`
	Port int    `json:"port"`

	// Hostname is the host's self-reported name.
	Hostname string `json:"hostname,omitempty"`

	// SoftwareVersion is the firmware version reported by the host.
	SoftwareVersion string `json:"software_version,omitempty"`

	// LastReadyAt is when the host last reported ready.
	LastReadyAt time.Time `json:"last_ready_at,omitempty"`
}

// ClientStateStore manages persistence of client state to a JSON file.
type ClientStateStore struct {
	mu   sync.Mutex
	path string
}

// NewClientStateStore creates a new client state store.
func NewClientStateStore(path string) *ClientStateStore {
	return &ClientStateStore{path: path}
}

// Save persists the client state to disk.
func (s *ClientStateStore) Save(state *ClientState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data, 0644)
}

// Load reads the client state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *ClientStateStore) Load() (*ClientState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &ClientState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Clear removes the state file.
func (s *ClientStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
