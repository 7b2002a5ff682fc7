package service

import (
	"time"

	"github.com/noah-isme/certisched-api/internal/models"
)

func isBusinessDay(day time.Time) bool {
	wd := day.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// businessDays returns the first n weekdays starting at start, including start itself
// when it is a weekday.
func businessDays(start time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	days := make([]time.Time, 0, n)
	for d := models.DateOnly(start); len(days) < n; d = d.AddDate(0, 0, 1) {
		if isBusinessDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// daysBetween is the whole number of calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(models.DateOnly(b).Sub(models.DateOnly(a)).Hours() / 24)
}
