package models

import "time"

// DateLayout is the ISO calendar date used in requests and map keys.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO date into UTC midnight.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// DateOnly keeps the civil date of t (in t's own location) at UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats the civil date of t.
func DateKey(t time.Time) string {
	return DateOnly(t).Format(DateLayout)
}
