// Package inspect provides mirrored-state inspection utilities.
//
// The inspect package offers a unified interface for:
//   - Parsing path expressions (e.g., "extruder/temperature")
//   - Reading objects and attributes from a state store
//   - Formatting output for display
package inspect

import (
	"errors"
	"strings"
)

// Path errors.
var (
	ErrEmptyPath   = errors.New("empty path")
	ErrInvalidPath = errors.New("invalid path format")
)

// Path represents a parsed inspection path.
// Format: object[/attribute[/key...]]
//
// Object names may contain spaces ("heater_generic chamber") but never a
// slash, so the first slash always ends the object name.
type Path struct {
	// Object is the mirrored object name.
	Object string

	// Attribute is the attribute within the object.
	Attribute string

	// Keys descend into nested map values of the attribute.
	Keys []string

	// IsPartial indicates the path names only an object.
	IsPartial bool

	// Raw stores the original input string.
	Raw string
}

// ParsePath parses a path string into a Path struct.
//
// Supported formats:
//   - "object" - partial (for listing attributes)
//   - "object/attribute"
//   - "object/attribute/key/..." - nested value
//
// Dots are accepted in place of the first slash ("toolhead.position")
// when the object name itself has no dot.
func ParsePath(input string) (*Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}

	if strings.HasPrefix(input, "/") || strings.HasSuffix(input, "/") || strings.Contains(input, "//") {
		return nil, ErrInvalidPath
	}

	p := &Path{Raw: input}

	if !strings.Contains(input, "/") {
		if obj, attr, ok := strings.Cut(input, "."); ok && obj != "" && attr != "" && !strings.Contains(attr, ".") {
			p.Object = obj
			p.Attribute = attr
			return p, nil
		}
		p.Object = input
		p.IsPartial = true
		return p, nil
	}

	parts := strings.Split(input, "/")
	p.Object = strings.TrimSpace(parts[0])
	p.Attribute = strings.TrimSpace(parts[1])
	if p.Object == "" || p.Attribute == "" {
		return nil, ErrInvalidPath
	}
	if len(parts) > 2 {
		p.Keys = parts[2:]
	}
	return p, nil
}

// String returns the path as a string.
func (p *Path) String() string {
	if p.IsPartial || p.Attribute == "" {
		return p.Object
	}
	var sb strings.Builder
	sb.WriteString(p.Object)
	sb.WriteString("/")
	sb.WriteString(p.Attribute)
	for _, k := range p.Keys {
		sb.WriteString("/")
		sb.WriteString(k)
	}
	return sb.String()
}
