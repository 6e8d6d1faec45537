package core

import "time"

// Canonical timestamp layout: ISO-8601 UTC with an explicit numeric
// offset and second precision, e.g. "2024-03-15T14:30:00+0000". Every
// stored timestamp uses this form, so lexicographic comparison in SQL
// matches chronological order.
const TimestampLayout = "2006-01-02T15:04:05-0700"

// DisplayLayout is the human-facing form used in listings and CSV
// exports. It is a rendering of the canonical timestamp, not a storage
// format.
const DisplayLayout = "2006-01-02 15:04"

// DayLayout is the date-only input form accepted for range filters.
const DayLayout = "2006-01-02"

// Clock supplies the current time for timestamp assignment. The store
// owns a Clock so tests can pin or step time deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock: wall time in UTC, truncated to
// seconds to match the canonical layout's precision.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// FormatTimestamp renders t in the canonical layout, normalized to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a canonical timestamp string.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// FormatDisplay renders t in the human display form.
func FormatDisplay(t time.Time) string {
	return t.UTC().Format(DisplayLayout)
}
