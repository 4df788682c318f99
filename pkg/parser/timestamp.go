package parser

import (
	"fmt"
	"regexp"
	"time"
)

// TimestampLayout renders timestamps as YYYY-MM-DD HH:MM:SS.ffffff.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// parseLayout accepts single-digit month, day, hour, minute and second
// fields. The fractional part is optional when parsing.
const parseLayout = "2006-1-2 15:4:5"

var timestampShape = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2} \d{1,2}:\d{1,2}:\d{1,2}(?:\.\d{1,6})?$`)

// ParseTimestamp parses a log timestamp such as "2024-01-01 10:00:05.500000".
// The fraction may carry one to six digits or be omitted. The result is UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if !timestampShape.MatchString(s) {
		return time.Time{}, fmt.Errorf("%q does not match YYYY-MM-DD HH:MM:SS.ffffff", s)
	}
	ts, err := time.Parse(parseLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return ts, nil
}

// FormatTimestamp renders t with microsecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
