// Package roster converts between the relational assignment shape and the wide
// employee-by-day grid the admin UI edits. Everything here is pure: no storage,
// no clock, no I/O beyond the export writers.
package roster

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DaysInMonth returns the number of calendar days in the given month,
// including leap-year February.
func DaysInMonth(year, month int) int {
	// Day zero of the following month normalizes to this month's last day.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidMonth reports whether the year/month pair addresses a real month.
func ValidMonth(year, month int) bool {
	return year >= 1 && month >= 1 && month <= 12
}

// FormatDayKey renders the display/export column key for one day. Day keys are
// structured ints everywhere inside the module; this single formatting point
// avoids the zero-padding drift that plagued older exports.
func FormatDayKey(day, month, year int) string {
	return fmt.Sprintf("%d/%d/%d", day, month, year)
}

// ParseDayKey parses a display column key back into its day number. The month
// and year components are checked against the expected values.
func ParseDayKey(key string, month, year int) (int, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed day key %q", key)
	}

	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("malformed day key %q: %w", key, err)
	}
	keyMonth, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("malformed day key %q: %w", key, err)
	}
	keyYear, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return 0, fmt.Errorf("malformed day key %q: %w", key, err)
	}

	if keyMonth != month || keyYear != year {
		return 0, fmt.Errorf("day key %q does not belong to %d/%d", key, month, year)
	}
	if day < 1 || day > DaysInMonth(year, month) {
		return 0, fmt.Errorf("day key %q is outside the month", key)
	}

	return day, nil
}
