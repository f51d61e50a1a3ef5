package model

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the only layout written to messages.timestamp. All values
// are UTC with fixed precision, so string order equals time order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// thresholdLayouts are accepted for caller supplied date-times. Layouts without
// an offset are read as UTC.
var thresholdLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses an ISO-8601 date-time and returns it in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range thresholdLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 date-time", s)
}

// NormalizeTimestamp re-renders an ISO-8601 date-time in TimestampLayout.
// Precision finer than a microsecond rounds up, so a stored value compares
// below the result exactly when it is earlier than the input.
func NormalizeTimestamp(s string) (string, error) {
	t, err := ParseTimestamp(s)
	if err != nil {
		return "", err
	}
	if tr := t.Truncate(time.Microsecond); tr.Before(t) {
		t = tr.Add(time.Microsecond)
	}
	return FormatTimestamp(t), nil
}
