package utils

import (
	"time"
)

// TruncateToDay drops the time of day and normalises to UTC, matching a SQL DATE column.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthYear returns the calendar period a snapshot taken at t belongs to.
func MonthYear(t time.Time) (int, int) {
	return int(t.Month()), t.Year()
}
