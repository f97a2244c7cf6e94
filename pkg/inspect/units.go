package inspect

import "strings"

// Unit kinds used to render attribute values.
const (
	UnitNone    = ""
	UnitCelsius = "°C"
	UnitPercent = "%"
	UnitSpeed   = "mm/s"
	UnitAccel   = "mm/s²"
	UnitMM      = "mm"
	UnitSeconds = "s"
)

// Attribute names with fixed units, independent of the object.
var attributeUnits = map[string]string{
	"temperature":            UnitCelsius,
	"target":                 UnitCelsius,
	"measured_min_temp":      UnitCelsius,
	"measured_max_temp":      UnitCelsius,
	"power":                  UnitPercent,
	"progress":               UnitPercent,
	"speed_factor":           UnitPercent,
	"extrude_factor":         UnitPercent,
	"max_velocity":           UnitSpeed,
	"square_corner_velocity": UnitSpeed,
	"max_accel":              UnitAccel,
	"minimum_cruise_ratio":   UnitPercent,
	"pressure_advance":       UnitNone,
	"print_duration":         UnitSeconds,
	"total_duration":         UnitSeconds,
	"filament_used":          UnitMM,
	"print_time":             UnitSeconds,
	"estimated_print_time":   UnitSeconds,
}

// Fractional attributes are reported as 0..1 and rendered as percent.
var fractionalUnits = map[string]bool{
	UnitPercent: true,
}

// UnitFor returns the display unit of an attribute.
func UnitFor(object, attribute string) string {
	if unit, ok := attributeUnits[attribute]; ok {
		return unit
	}
	// fan objects report speed as a 0..1 fraction.
	if attribute == "speed" && isFan(object) {
		return UnitPercent
	}
	if attribute == "speed" {
		return UnitSpeed
	}
	return UnitNone
}

func isFan(object string) bool {
	kind, _, _ := strings.Cut(object, " ")
	switch kind {
	case "fan", "fan_generic", "heater_fan", "controller_fan", "temperature_fan":
		return true
	}
	return false
}
