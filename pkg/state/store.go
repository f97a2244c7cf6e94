package state

import (
	"sort"
	"sync"
	"time"
)

// InfoObject holds host identity attributes (hostname, version).
const InfoObject = "info"

// DefaultGcodeLogSize is the number of gcode response lines kept.
const DefaultGcodeLogSize = 1000

// ChangeKind classifies a store mutation.
type ChangeKind uint8

const (
	ChangeReset ChangeKind = iota
	ChangeMerge
	ChangeReplace
	ChangeGcodeResponse
	ChangeObjectList
	ChangeHeaterHistory
	ChangeFiles
	ChangeHelp
	ChangeSettings
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeReset:
		return "RESET"
	case ChangeMerge:
		return "MERGE"
	case ChangeReplace:
		return "REPLACE"
	case ChangeGcodeResponse:
		return "GCODE_RESPONSE"
	case ChangeObjectList:
		return "OBJECT_LIST"
	case ChangeHeaterHistory:
		return "HEATER_HISTORY"
	case ChangeFiles:
		return "FILES"
	case ChangeHelp:
		return "HELP"
	case ChangeSettings:
		return "SETTINGS"
	default:
		return "UNKNOWN"
	}
}

// Change describes one applied mutation.
type Change struct {
	Kind ChangeKind

	// Object is the affected object name for merge/replace,
	// or the affected path for file changes.
	Object string

	// Attributes lists the attribute names carried by a merge or replace.
	Attributes []string
}

// GcodeLine is one entry of the gcode response log.
type GcodeLine struct {
	Time    time.Time
	Message string
}

// HeaterSeries is the cached temperature history of one heater or sensor.
type HeaterSeries struct {
	Temperatures []float64 `json:"temperatures"`
	Targets      []float64 `json:"targets,omitempty"`
	Powers       []float64 `json:"powers,omitempty"`
}

// Store is the mirrored host state.
//
// Writes come from a single goroutine (the engine loop). The lock only
// protects readers on other goroutines such as the interactive console.
type Store struct {
	mu sync.RWMutex

	objects       map[string]map[string]any
	objectNames   []string
	gcodeLog      []GcodeLine
	gcodeLogSize  int
	heaterHistory map[string]HeaterSeries
	help          map[string]string
	settings      []byte
	files         *FileTree

	listeners []func(Change)
	now       func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return NewStoreWithLogSize(DefaultGcodeLogSize)
}

// NewStoreWithLogSize creates an empty store keeping at most size gcode lines.
func NewStoreWithLogSize(size int) *Store {
	if size <= 0 {
		size = DefaultGcodeLogSize
	}
	return &Store{
		objects:       make(map[string]map[string]any),
		gcodeLogSize:  size,
		heaterHistory: make(map[string]HeaterSeries),
		help:          make(map[string]string),
		files:         NewFileTree(),
		now:           time.Now,
	}
}

// OnChange registers a listener invoked after every mutation.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Merge shallow-merges delta into the named object, creating it if absent.
func (s *Store) Merge(object string, delta map[string]any) {
	s.mu.Lock()
	attrs, ok := s.objects[object]
	if !ok {
		attrs = make(map[string]any, len(delta))
		s.objects[object] = attrs
	}
	for k, v := range delta {
		attrs[k] = v
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeMerge, Object: object, Attributes: sortedKeys(delta)})
}

// MergeStatus merges a status payload of the form {object: {attr: value}}.
// Objects are applied in name order. Non-object values (such as the host's
// eventtime) are ignored.
func (s *Store) MergeStatus(status map[string]any) {
	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if delta, ok := status[name].(map[string]any); ok {
			s.Merge(name, delta)
		}
	}
}

// Replace sets the named object's attributes to exactly attrs.
func (s *Store) Replace(object string, attrs map[string]any) {
	copied := make(map[string]any, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}

	s.mu.Lock()
	s.objects[object] = copied
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeReplace, Object: object, Attributes: sortedKeys(attrs)})
}

// Reset clears all mirrored state.
func (s *Store) Reset() {
	s.mu.Lock()
	s.objects = make(map[string]map[string]any)
	s.objectNames = nil
	s.gcodeLog = nil
	s.heaterHistory = make(map[string]HeaterSeries)
	s.help = make(map[string]string)
	s.settings = nil
	s.files = NewFileTree()
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeReset})
}

// Get returns one attribute value.
func (s *Store) Get(object, attr string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attrs, ok := s.objects[object]
	if !ok {
		return nil, false
	}
	v, ok := attrs[attr]
	return v, ok
}

// Object returns a copy of the named object's attributes.
func (s *Store) Object(object string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attrs, ok := s.objects[object]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out, true
}

// Objects returns the mirrored object names in sorted order.
func (s *Store) Objects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of all objects. Attribute values are shared.
func (s *Store) Snapshot() map[string]map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]any, len(s.objects))
	for name, attrs := range s.objects {
		copied := make(map[string]any, len(attrs))
		for k, v := range attrs {
			copied[k] = v
		}
		out[name] = copied
	}
	return out
}

// AppendGcodeResponse adds a line to the bounded gcode response log.
func (s *Store) AppendGcodeResponse(message string) {
	s.mu.Lock()
	s.gcodeLog = append(s.gcodeLog, GcodeLine{Time: s.now(), Message: message})
	if over := len(s.gcodeLog) - s.gcodeLogSize; over > 0 {
		s.gcodeLog = append([]GcodeLine(nil), s.gcodeLog[over:]...)
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeGcodeResponse})
}

// GcodeLog returns a copy of the gcode response log, oldest first.
func (s *Store) GcodeLog() []GcodeLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]GcodeLine(nil), s.gcodeLog...)
}

// SetObjectNames records the host's object list.
func (s *Store) SetObjectNames(names []string) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	s.mu.Lock()
	s.objectNames = sorted
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeObjectList})
}

// ObjectNames returns the host's object list.
func (s *Store) ObjectNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.objectNames...)
}

// SetHeaterHistory replaces the cached temperature history.
func (s *Store) SetHeaterHistory(history map[string]HeaterSeries) {
	s.mu.Lock()
	s.heaterHistory = make(map[string]HeaterSeries, len(history))
	for name, series := range history {
		s.heaterHistory[name] = series
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeHeaterHistory})
}

// HeaterHistory returns the cached history for one heater.
func (s *Store) HeaterHistory(name string) (HeaterSeries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series, ok := s.heaterHistory[name]
	return series, ok
}

// SetHelp replaces the gcode command help list.
func (s *Store) SetHelp(help map[string]string) {
	s.mu.Lock()
	s.help = make(map[string]string, len(help))
	for k, v := range help {
		s.help[k] = v
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeHelp})
}

// Help returns a copy of the gcode command help list.
func (s *Store) Help() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.help))
	for k, v := range s.help {
		out[k] = v
	}
	return out
}

// SetSettings stores the UI settings blob.
func (s *Store) SetSettings(blob []byte) {
	s.mu.Lock()
	s.settings = append([]byte(nil), blob...)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeSettings})
}

// Settings returns the UI settings blob, nil if none was loaded.
func (s *Store) Settings() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil
	}
	return append([]byte(nil), s.settings...)
}

func (s *Store) emit(change Change) {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(change)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
