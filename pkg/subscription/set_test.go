package subscription

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetAddReplaces(t *testing.T) {
	s := NewSet()
	s.Add("extruder", "temperature", "target")
	s.Add("extruder", "power")

	assert.Equal(t, 1, s.Len())
	f, ok := s.Fields("extruder")
	assert.True(t, ok)
	assert.Equal(t, []string{"power"}, f)
}

func TestSetFieldsNormalized(t *testing.T) {
	s := NewSet()
	s.Add("toolhead", "position", "homed_axes", "position")

	f, _ := s.Fields("toolhead")
	assert.Equal(t, []string{"homed_axes", "position"}, f)
}

func TestSetMerge(t *testing.T) {
	a := NewSet("gcode", "toolhead")
	b := NewSet()
	b.Add("toolhead", "position")
	b.Add("fan")

	a.Merge(b)
	a.Merge(nil)

	assert.Equal(t, []string{"fan", "gcode", "toolhead"}, a.Names())
	f, _ := a.Fields("toolhead")
	assert.Equal(t, []string{"position"}, f)
}

func TestSetParams(t *testing.T) {
	s := NewSet("gcode")
	s.Add("configfile", "config")

	data, err := json.Marshal(s.Params())
	assert.NoError(t, err)
	assert.JSONEq(t, `{"gcode":[],"configfile":["config"]}`, string(data))
}

func TestSetIgnoresEmptyName(t *testing.T) {
	s := NewSet("")
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has(""))
}

func TestSetClear(t *testing.T) {
	s := NewSet("a", "b")
	s.Clear()
	assert.Equal(t, 0, s.Len())
}
