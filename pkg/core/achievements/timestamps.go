package achievements

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NullDate is the backend's placeholder for "no event date"
const NullDate = "0001-01-01T00:00:00"

// Layouts the backend has been seen to use for timestamps. Layouts without a
// zone are interpreted in the caller's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"02/01/2006",
}

// ParseTimestamp parses a backend timestamp in any of the known layouts
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// HasEventDate reports whether the value is a real date rather than empty or the null placeholder
func HasEventDate(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && !strings.HasPrefix(value, NullDate)
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseMonth accepts a month number (1-12) or an English month name or abbreviation
func ParseMonth(value string) (time.Month, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("month %d out of range", n)
		}
		return time.Month(n), nil
	}

	lower := strings.ToLower(value)
	if len(lower) >= 3 {
		for m := time.January; m <= time.December; m++ {
			if strings.HasPrefix(strings.ToLower(m.String()), lower) {
				return m, nil
			}
		}
	}

	return 0, fmt.Errorf("unrecognised month %q", value)
}

// ParseYear parses a four-digit year
func ParseYear(value string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid year %q: %w", value, err)
	}
	return year, nil
}
