package mapper

// mlStateNames maps microleakage-test status codes to display names.
var mlStateNames = map[string]string{
	"idle":                   "Idle",
	"running":                "Running",
	"success":                "No Leakage",
	"leakage":                "Leakage Detected",
	"cancelled":              "Cancelled",
	"failure-pressure-drop":  "Pressure Drop",
	"failure-water-tap":      "Water Tap Opened",
	"failure-start-pressure": "Low Start Pressure",
	"failure-unknown":        "Unknown Failure",
}

// MLStateName returns the display name for a microleakage state code, or the
// code itself when it is not a known state.
func MLStateName(state string) string {
	if name, ok := mlStateNames[state]; ok {
		return name
	}
	return state
}
