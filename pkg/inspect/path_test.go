package inspect

import (
	"errors"
	"reflect"
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Path
		wantErr error
	}{
		{
			name:  "object only",
			input: "toolhead",
			want:  &Path{Object: "toolhead", IsPartial: true},
		},
		{
			name:  "object with space",
			input: "heater_generic chamber",
			want:  &Path{Object: "heater_generic chamber", IsPartial: true},
		},
		{
			name:  "object and attribute",
			input: "extruder/temperature",
			want:  &Path{Object: "extruder", Attribute: "temperature"},
		},
		{
			name:  "dotted attribute",
			input: "toolhead.position",
			want:  &Path{Object: "toolhead", Attribute: "position"},
		},
		{
			name:  "nested keys",
			input: "configfile/settings/printer/kinematics",
			want: &Path{
				Object:    "configfile",
				Attribute: "settings",
				Keys:      []string{"printer", "kinematics"},
			},
		},
		{
			name:  "spaced object and attribute",
			input: "gcode_macro PRINT_START/variable_temp",
			want:  &Path{Object: "gcode_macro PRINT_START", Attribute: "variable_temp"},
		},
		{
			name:    "empty",
			input:   "   ",
			wantErr: ErrEmptyPath,
		},
		{
			name:    "leading slash",
			input:   "/toolhead",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "trailing slash",
			input:   "toolhead/",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "double slash",
			input:   "toolhead//position",
			wantErr: ErrInvalidPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePath(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath(%q) unexpected error: %v", tt.input, err)
			}
			tt.want.Raw = got.Raw
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePath(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPathString(t *testing.T) {
	tests := []string{
		"toolhead",
		"extruder/temperature",
		"configfile/settings/printer/kinematics",
	}
	for _, input := range tests {
		p, err := ParsePath(input)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", input, err)
		}
		if got := p.String(); got != input {
			t.Errorf("String() = %q, want %q", got, input)
		}
	}

	p, _ := ParsePath("toolhead.position")
	if got := p.String(); got != "toolhead/position" {
		t.Errorf("String() = %q, want toolhead/position", got)
	}
}
