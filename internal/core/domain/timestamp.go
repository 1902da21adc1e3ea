package domain

import (
	"strings"
	"time"
)

// naiveLayouts are the zone-less ISO-8601 shapes found in processing
// metadata. Upstream generators write local times without a zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 processing timestamp.
// Naive timestamps are interpreted in local time.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders t the way processing metadata stores it.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
