package mapper

import (
	"strings"
	"time"
)

// ParseTimestamp parses an ISO-8601 timestamp string into a timezone-aware
// instant. Strings ending in "Z" parse identically to the same instant with
// an explicit "+00:00" offset. Empty or malformed strings yield ok=false,
// never an error.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	// time.RFC3339 already accepts both "Z" and numeric offsets; the second
	// layout covers payloads that omit the offset entirely.
	layouts := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}

	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
