// Package period derives week-bucket labels from calendar dates.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date")

// Convention selects how a date maps onto a week bucket.
// A deployment picks exactly one.
type Convention string

const (
	// ISOWeek buckets by ISO-8601 week of year (weeks start Monday,
	// the week containing the year's first Thursday is week 1).
	ISOWeek Convention = "iso"
	// WeekOfMonth buckets by ceil(dayOfMonth/7), capped at 5.
	WeekOfMonth Convention = "month"
)

// DateLayout is the normalized date-only storage format.
const DateLayout = "2006-01-02"

// ParseDate parses a normalized YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// Resolve returns the "Week NN" label for the given date under the
// given convention. It is pure: same inputs, same label.
func Resolve(date time.Time, conv Convention) (string, error) {
	if date.IsZero() {
		return "", ErrInvalidDate
	}
	switch conv {
	case ISOWeek:
		_, week := date.ISOWeek()
		return Label(week), nil
	case WeekOfMonth:
		week := (date.Day() + 6) / 7
		if week > 5 {
			week = 5
		}
		return Label(week), nil
	default:
		return "", fmt.Errorf("unknown convention %q", conv)
	}
}

// ResolveString is Resolve for a normalized YYYY-MM-DD string.
func ResolveString(date string, conv Convention) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return Resolve(d, conv)
}

// Label formats a week number as the canonical zero-padded label.
func Label(week int) string {
	return fmt.Sprintf("Week %02d", week)
}

// ValidLabel reports whether s is a well-formed label within the
// convention's range.
func ValidLabel(s string, conv Convention) bool {
	rest, ok := strings.CutPrefix(s, "Week ")
	if !ok {
		return false
	}
	week, err := strconv.Atoi(rest)
	if err != nil || s != Label(week) {
		return false
	}
	switch conv {
	case ISOWeek:
		return week >= 1 && week <= 53
	case WeekOfMonth:
		return week >= 1 && week <= 5
	default:
		return false
	}
}
