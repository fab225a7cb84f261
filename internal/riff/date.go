package riff

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// canonDateLayout is the IDIT text format: "MON AUG 28 14:14:28 2006".
// Weekday and month are three-letter abbreviations, day/hour/minute/second
// are zero-padded two-digit fields, year is four digits.
const canonDateLayout = "Mon Jan 02 15:04:05 2006"

// ErrBadDate indicates an IDIT payload that does not match the Canon
// date grammar.
var ErrBadDate = errors.New("unparsable creation date")

// ParseCanonDate decodes an IDIT payload into a time.
// Trailing NUL padding and surrounding whitespace are stripped first.
func ParseCanonDate(raw []byte) (time.Time, error) {
	clean := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(string(raw)), "\x00"))

	t, err := time.Parse(canonDateLayout, clean)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, clean)
	}
	return t, nil
}

// FormatCanonDate encodes a time in the IDIT text format, upper-cased.
// FormatCanonDate is the exact inverse of ParseCanonDate: parsing its
// output yields the same second-precision time back.
func FormatCanonDate(t time.Time) string {
	return strings.ToUpper(t.Format(canonDateLayout))
}
