// Package timedelta parses human-readable relative time expressions such
// as "+5", "-2w 1d", or "+1y 2m 3d 4h" into durations.
//
// The calendar model is approximate: a year is a fixed 365 days and a
// month a fixed 30 days. Results are nominal shifts, not exact
// anniversaries.
package timedelta

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Day is the base unit; hours contribute fractionally to it.
const Day = 24 * time.Hour

// Mode controls how an expression without a leading sign is treated.
type Mode int

const (
	// Strict requires an explicit + or - prefix.
	Strict Mode = iota
	// Lenient treats an unsigned expression as positive.
	Lenient
)

var (
	ErrMissingSign   = errors.New("time adjustment must start with + or -")
	ErrInvalidFormat = errors.New("invalid time format")
	ErrUnknownUnit   = errors.New("unsupported time unit")
)

// pairPattern matches one <integer><unit-letter> component.
var pairPattern = regexp.MustCompile(`(\d+)([a-z])`)

// Parse converts an expression to a duration.
//
// The expression is an optional sign followed by either a bare integer
// (whole days) or whitespace-separated <integer><unit> pairs. Recognized
// units, case-insensitive: y (365 days), m (30 days), w (7 days),
// d (1 day), h (1 hour).
//
// The sign applies to the summed total, not per pair: "-2w 1d" is
// -(2*7 + 1) = -15 days.
func Parse(expr string, mode Mode) (time.Duration, error) {
	s := strings.TrimSpace(expr)

	negative := false
	switch {
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	default:
		if mode == Strict {
			return 0, fmt.Errorf("%w: %q", ErrMissingSign, expr)
		}
	}

	total, err := parseMagnitude(strings.ToLower(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", err, expr)
	}

	if negative {
		return -total, nil
	}
	return total, nil
}

// parseMagnitude sums the unsigned expression body into a duration.
func parseMagnitude(s string) (time.Duration, error) {
	// A bare integer means whole days.
	if isDigits(s) {
		days, err := strconv.Atoi(s)
		if err != nil {
			return 0, ErrInvalidFormat
		}
		return time.Duration(days) * Day, nil
	}

	matches := pairPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, ErrInvalidFormat
	}

	var total time.Duration
	for _, m := range matches {
		value, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, ErrInvalidFormat
		}

		switch m[2] {
		case "y":
			total += time.Duration(value) * 365 * Day
		case "m":
			total += time.Duration(value) * 30 * Day
		case "w":
			total += time.Duration(value) * 7 * Day
		case "d":
			total += time.Duration(value) * Day
		case "h":
			total += time.Duration(value) * time.Hour
		default:
			return 0, ErrUnknownUnit
		}
	}

	return total, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
