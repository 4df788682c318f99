package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotReadable is returned when a log file cannot be opened or read.
	ErrFileNotReadable = errors.New("log file not readable")

	// ErrTimestampParse is returned when a matched line carries a timestamp
	// that does not follow the fixed layout.
	ErrTimestampParse = errors.New("malformed timestamp")
)

// TimestampError reports a malformed timestamp on a specific line.
type TimestampError struct {
	Source  string
	LineNum int
	Value   string
	Err     error
}

func (e *TimestampError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("timestamp %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("%s:%d: timestamp %q: %v", e.Source, e.LineNum, e.Value, e.Err)
}

// Unwrap lets errors.Is match ErrTimestampParse.
func (e *TimestampError) Unwrap() []error {
	return []error{ErrTimestampParse, e.Err}
}
