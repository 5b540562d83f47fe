package util

import "time"

// DayLayout is the wire format for daily bar and headline dates.
const DayLayout = "2006-01-02"

// Day truncates t to its UTC calendar day. All daily keys (bars, headlines,
// sentiment aggregates) are normalized through this before storage.
func Day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// NextDay returns the UTC day after t's day.
func NextDay(t time.Time) time.Time {
	return Day(t).AddDate(0, 0, 1)
}

// FormatDay renders t's UTC day in DayLayout.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ParseDay parses a DayLayout date as a UTC day.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, s, time.UTC)
}
