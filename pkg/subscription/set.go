package subscription

import (
	"slices"
	"sort"
)

// Set maps object names to requested fields. An empty field list means
// every field.
type Set struct {
	objects map[string][]string
}

// NewSet creates a set holding objects with all fields.
func NewSet(objects ...string) *Set {
	s := &Set{objects: make(map[string][]string)}
	for _, o := range objects {
		s.Add(o)
	}
	return s
}

// Add sets the fields of object, replacing any earlier entry.
func (s *Set) Add(object string, fields ...string) {
	if object == "" {
		return
	}
	f := slices.Clone(fields)
	sort.Strings(f)
	s.objects[object] = slices.Compact(f)
}

// Merge adds every entry of other, replacing overlapping objects.
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	for o, f := range other.objects {
		s.objects[o] = slices.Clone(f)
	}
}

// Len returns the number of objects.
func (s *Set) Len() int {
	return len(s.objects)
}

// Has reports whether object is in the set.
func (s *Set) Has(object string) bool {
	_, ok := s.objects[object]
	return ok
}

// Fields returns the fields requested for object.
func (s *Set) Fields(object string) ([]string, bool) {
	f, ok := s.objects[object]
	return slices.Clone(f), ok
}

// Names returns the object names, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.objects))
	for o := range s.objects {
		names = append(names, o)
	}
	sort.Strings(names)
	return names
}

// Clear removes every object.
func (s *Set) Clear() {
	s.objects = make(map[string][]string)
}

// Params renders the set as request params: {"object": [fields...]}.
// Objects with all fields render as an empty list.
func (s *Set) Params() map[string][]string {
	p := make(map[string][]string, len(s.objects))
	for o, f := range s.objects {
		if f == nil {
			f = []string{}
		}
		p[o] = slices.Clone(f)
	}
	return p
}
