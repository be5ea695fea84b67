package license

import (
	"fmt"
	"time"
)

// TimestampLayout is the persisted and wire form of every timestamp: naive
// UTC with a fixed six-digit fraction, so text order matches time order.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// parseLayouts accepts the canonical layout (the fraction is optional when
// parsing) and offset-qualified values written by other tools.
var parseLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// Clock returns the current time. Engine callers inject it so tests can pin
// "now".
type Clock func() time.Time

// SystemClock is the production Clock.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp reads a stored timestamp as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
