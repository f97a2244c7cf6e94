package inspect

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowUnits appends units to numeric values.
	ShowUnits bool

	// MaxListItems truncates long lists (0 = no limit).
	MaxListItems int

	// IndentWidth is the number of spaces per indent level
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowUnits:    true,
		MaxListItems: 8,
		IndentWidth:  2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	indent := strings.Repeat(" ", depth*width)
	return indent + content
}

// FormatValue formats a decoded JSON value for display, including unit
// conversions.
func (f *Formatter) FormatValue(value any, unit string) string {
	if value == nil {
		return "null"
	}

	switch v := value.(type) {
	case bool:
		if v {
			return "true"
		}
		return "false"

	case string:
		return fmt.Sprintf("%q", v)

	case float64:
		return f.formatNumber(v, unit)

	case int:
		return f.formatNumber(float64(v), unit)

	case int64:
		return f.formatNumber(float64(v), unit)

	case json.Number:
		if n, err := v.Float64(); err == nil {
			return f.formatNumber(n, unit)
		}
		return v.String()

	case []any:
		return f.formatList(v, unit)

	case map[string]any:
		return f.formatMap(v)

	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatNumber formats a number with optional unit and percent conversion.
func (f *Formatter) formatNumber(v float64, unit string) string {
	if !f.ShowUnits || unit == UnitNone {
		return formatFloat(v)
	}
	if fractionalUnits[unit] {
		return fmt.Sprintf("%.1f%s", v*100, unit)
	}
	return fmt.Sprintf("%s %s", formatFloat(v), unit)
}

func (f *Formatter) formatList(items []any, unit string) string {
	limit := len(items)
	if f.MaxListItems > 0 && limit > f.MaxListItems {
		limit = f.MaxListItems
	}

	parts := make([]string, 0, limit+1)
	for _, item := range items[:limit] {
		// Units apply to the whole list; render elements bare.
		parts = append(parts, (&Formatter{}).FormatValue(item, UnitNone))
	}
	if limit < len(items) {
		parts = append(parts, fmt.Sprintf("... %d more", len(items)-limit))
	}

	out := "[" + strings.Join(parts, ", ") + "]"
	if f.ShowUnits && unit != UnitNone && !fractionalUnits[unit] {
		out += " " + unit
	}
	return out
}

func (f *Formatter) formatMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, f.FormatValue(m[k], UnitNone)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// formatFloat drops trailing zeros and renders integral values without a
// fraction.
func formatFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	s := fmt.Sprintf("%.3f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// FormatDuration formats seconds as h:mm:ss.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// AttributeRow is one line of an attribute table.
type AttributeRow struct {
	Name  string
	Value string
}

// FormatAttributeTable formats a list of attributes as a table.
func (f *Formatter) FormatAttributeTable(rows []AttributeRow) string {
	if len(rows) == 0 {
		return "  (no attributes)\n"
	}

	width := 0
	for _, row := range rows {
		if len(row.Name) > width {
			width = len(row.Name)
		}
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(f.Indent(1, fmt.Sprintf("%-*s = %s", width, row.Name, row.Value)))
		sb.WriteString("\n")
	}
	return sb.String()
}
