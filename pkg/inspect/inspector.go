package inspect

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Steam-Park/mainsail/pkg/state"
)

// Inspector errors.
var (
	ErrObjectNotFound    = errors.New("object not found")
	ErrAttributeNotFound = errors.New("attribute not found")
	ErrKeyNotFound       = errors.New("key not found")
)

// Inspector reads mirrored objects for display.
type Inspector struct {
	store *state.Store
}

// NewInspector creates a new Inspector for the given store.
func NewInspector(store *state.Store) *Inspector {
	return &Inspector{store: store}
}

// Store returns the underlying store.
func (i *Inspector) Store() *state.Store {
	return i.store
}

// ObjectInfo represents an object for display.
type ObjectInfo struct {
	Name       string
	Attributes []AttributeInfo
}

// AttributeInfo represents an attribute for display.
type AttributeInfo struct {
	Name  string
	Value any
	Unit  string
}

// ObjectSummary is one line of the object listing.
type ObjectSummary struct {
	Name       string
	Attributes int
}

// ListObjects returns every mirrored object with its attribute count.
func (i *Inspector) ListObjects() []ObjectSummary {
	snapshot := i.store.Snapshot()
	out := make([]ObjectSummary, 0, len(snapshot))
	for name, attrs := range snapshot {
		out = append(out, ObjectSummary{Name: name, Attributes: len(attrs)})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// InspectObject returns one object with its attributes in name order.
func (i *Inspector) InspectObject(name string) (*ObjectInfo, error) {
	attrs, ok := i.store.Object(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, name)
	}

	info := &ObjectInfo{Name: name}
	for attr, v := range attrs {
		info.Attributes = append(info.Attributes, AttributeInfo{
			Name:  attr,
			Value: v,
			Unit:  UnitFor(name, attr),
		})
	}
	sort.Slice(info.Attributes, func(a, b int) bool {
		return info.Attributes[a].Name < info.Attributes[b].Name
	})
	return info, nil
}

// ReadAttribute reads the value a full path points to.
func (i *Inspector) ReadAttribute(path *Path) (any, error) {
	if path.IsPartial {
		return nil, fmt.Errorf("%w: %s names an object", ErrInvalidPath, path.Raw)
	}
	if _, ok := i.store.Object(path.Object); !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, path.Object)
	}
	value, ok := i.store.Get(path.Object, path.Attribute)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrAttributeNotFound, path.Object, path.Attribute)
	}

	for _, key := range path.Keys {
		m, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		if value, ok = m[key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
	}
	return value, nil
}

// Inspect resolves path to display text: the attribute table for an
// object path, or a single value line.
func (i *Inspector) Inspect(path *Path, formatter *Formatter) (string, error) {
	if formatter == nil {
		formatter = NewFormatter()
	}
	if path.IsPartial {
		info, err := i.InspectObject(path.Object)
		if err != nil {
			return "", err
		}
		return i.FormatObject(info, formatter), nil
	}

	value, err := i.ReadAttribute(path)
	if err != nil {
		return "", err
	}
	unit := UnitNone
	if len(path.Keys) == 0 {
		unit = UnitFor(path.Object, path.Attribute)
	}
	return fmt.Sprintf("%s = %s\n", path, formatter.FormatValue(value, unit)), nil
}

// FormatObject formats an object for display.
func (i *Inspector) FormatObject(info *ObjectInfo, formatter *Formatter) string {
	if formatter == nil {
		formatter = NewFormatter()
	}

	rows := make([]AttributeRow, 0, len(info.Attributes))
	for _, attr := range info.Attributes {
		rows = append(rows, AttributeRow{
			Name:  attr.Name,
			Value: formatter.FormatValue(attr.Value, attr.Unit),
		})
	}
	return info.Name + ":\n" + formatter.FormatAttributeTable(rows)
}

// FormatObjectList formats the object listing.
func (i *Inspector) FormatObjectList(objects []ObjectSummary) string {
	if len(objects) == 0 {
		return "(no objects)\n"
	}
	var sb strings.Builder
	for _, obj := range objects {
		fmt.Fprintf(&sb, "%-32s %d attributes\n", obj.Name, obj.Attributes)
	}
	return sb.String()
}

// FormatHeaters renders current temperatures of the heaters and sensors
// reported by the heaters object.
func (i *Inspector) FormatHeaters(formatter *Formatter) string {
	if formatter == nil {
		formatter = NewFormatter()
	}

	var names []string
	if v, ok := i.store.Get("heaters", "available_sensors"); ok {
		if items, ok := v.([]any); ok {
			for _, item := range items {
				if s, ok := item.(string); ok {
					names = append(names, s)
				}
			}
		}
	}
	if len(names) == 0 {
		return "(no heaters)\n"
	}

	var sb strings.Builder
	for _, name := range names {
		temp, _ := i.store.Get(name, "temperature")
		line := fmt.Sprintf("%-28s %s", name, formatter.FormatValue(temp, UnitCelsius))
		if target, ok := i.store.Get(name, "target"); ok {
			line += " / " + formatter.FormatValue(target, UnitCelsius)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}
