// Package mapper translates WaterCryst API codes into human-readable names.
//
// Every lookup here is total: unknown codes pass through unchanged, they are
// never an error.
package mapper

// modeNames maps the fixed operating-mode codes to display names.
var modeNames = map[string]string{
	"SU": "Start Up",
	"RS": "Rinse",
	"ST": "Self Test",
	"UD": "Firmware Update",
	"FS": "Failsafe",
	"ER": "Error Mode",
	"WO": "Water Off",
	"WT": "Water Treatment",
	"TD": "Thermal Disinfection",
	"MC": "Maintenance Cleaning",
}

// ModeName returns the display name for a mode code, or the code itself when
// it is not a known mode.
func ModeName(id string) string {
	if name, ok := modeNames[id]; ok {
		return name
	}
	return id
}
