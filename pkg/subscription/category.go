package subscription

import "strings"

// Category is a dynamic object kind worth subscribing to.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryTemperatureFan
	CategoryTemperatureProbe
	CategoryTemperatureSensor
	CategoryFilamentSwitchSensor
	CategoryBedMesh
)

var categoryPrefixes = map[string]Category{
	"temperature_fan":        CategoryTemperatureFan,
	"temperature_probe":      CategoryTemperatureProbe,
	"temperature_sensor":     CategoryTemperatureSensor,
	"filament_switch_sensor": CategoryFilamentSwitchSensor,
	"bed_mesh":               CategoryBedMesh,
}

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTemperatureFan:
		return "TEMPERATURE_FAN"
	case CategoryTemperatureProbe:
		return "TEMPERATURE_PROBE"
	case CategoryTemperatureSensor:
		return "TEMPERATURE_SENSOR"
	case CategoryFilamentSwitchSensor:
		return "FILAMENT_SWITCH_SENSOR"
	case CategoryBedMesh:
		return "BED_MESH"
	default:
		return "UNKNOWN"
	}
}

// Classify returns the category of an object name such as
// "temperature_sensor chamber". Only the first space-separated word is
// considered.
func Classify(name string) (Category, bool) {
	prefix, _, _ := strings.Cut(strings.TrimSpace(name), " ")
	c, ok := categoryPrefixes[prefix]
	return c, ok
}
