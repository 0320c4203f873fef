// Package dates validates path-supplied calendar dates and derives the
// trailing-year window used by the climate queries. Dates travel as canonical
// YYYY-MM-DD strings, which sort lexically in chronological order.
package dates

import (
	"fmt"
	"time"
)

// Layout is the only accepted date representation.
const Layout = "2006-01-02"

// InvalidDateError reports a date literal that is not a canonical YYYY-MM-DD
// calendar date. Field is "start", "end" or empty for a lone date.
type InvalidDateError struct {
	Field string
	Value string
}

func (e *InvalidDateError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("Please, specify the date in 'YYYY-MM-DD' format: The entered date '%s' is not valid.", e.Value)
	}
	return fmt.Sprintf("Please, specify the %s date in 'YYYY-MM-DD' format: The entered date '%s' is not valid.", e.Field, e.Value)
}

// InvalidRangeError reports an end date that sorts before its start date.
type InvalidRangeError struct {
	Start string
	End   string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("Please, specify start date less then end date. The dates entered are '%s' and '%s'", e.Start, e.End)
}

// Validate accepts s only if it parses as a real calendar date and formats
// back to exactly the same string.
func Validate(s string) error {
	return validateField("", s)
}

// ValidateRange validates start, then end, then requires end >= start.
func ValidateRange(start, end string) error {
	if err := validateField("start", start); err != nil {
		return err
	}
	if err := validateField("end", end); err != nil {
		return err
	}
	if end < start {
		return &InvalidRangeError{Start: start, End: end}
	}
	return nil
}

func validateField(field, s string) error {
	t, err := time.Parse(Layout, s)
	if err != nil || t.Format(Layout) != s {
		return &InvalidDateError{Field: field, Value: s}
	}
	return nil
}

// YearBefore returns the date one calendar year before s. Month and day are
// kept; a day missing from the target month (Feb 29) clamps to that month's
// last day.
func YearBefore(s string) (string, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", s, err)
	}
	year, month, day := t.Date()
	year--
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(Layout), nil
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
