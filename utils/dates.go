package utils

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate converts YYYY-MM-DD to a UTC time.Time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate: %w", err)
	}
	return t, nil
}

// Days returns the number of calendar days between two dates.
func Days(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}

// AddMonth behaves like Excel's EDATE: the day of month is kept when it
// exists in the target month and clipped to its last day otherwise.
func AddMonth(t time.Time, months int) time.Time {
	shifted := t.AddDate(0, months, 0)
	want := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0).Month()
	for shifted.Month() != want {
		shifted = shifted.AddDate(0, 0, -1)
	}
	return shifted
}
