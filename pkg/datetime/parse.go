// Package datetime provides month arithmetic for dated schedules.
package datetime

import (
	"time"

	"github.com/iwvelando/emi-calculator/pkg/constants"
)

const (
	// DateTimeLayout is the format expected in config files and is also the output
	// date format.
	DateTimeLayout = constants.DateTimeLayout
)

// ParseMonth parses a YYYY-MM string.
func ParseMonth(month string) (time.Time, error) {
	return time.Parse(DateTimeLayout, month)
}

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}

// NextMonth formats the month following now, which is when a loan taken out
// today makes its first payment.
func NextMonth(now time.Time) string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, 0).Format(DateTimeLayout)
}
