package mapper

// categoryIcons maps event categories to Material Design icon names, the
// convention home-automation frontends expect.
var categoryIcons = map[string]string{
	"error":   "mdi:alert-circle",
	"warning": "mdi:alert",
	"info":    "mdi:information",
}

// EventCategoryIcon returns the icon for an event category. Unknown
// categories fall back to the info icon.
func EventCategoryIcon(category string) string {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return "mdi:information"
}
