// Package parser provides log file reading and start/stop line classification.
package parser

import "time"

// EventKind distinguishes the two halves of an interval.
type EventKind int

const (
	// KindStart opens an interval for a turbine.
	KindStart EventKind = iota + 1

	// KindStop closes the pending interval for a turbine.
	KindStop
)

// String returns the lowercase name of the kind.
func (k EventKind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindStop:
		return "stop"
	default:
		return "unknown"
	}
}

// LogEvent is a classified start or stop line.
type LogEvent struct {
	// Timestamp is the event time with microsecond precision, in UTC.
	Timestamp time.Time

	// Kind is start or stop.
	Kind EventKind

	// TurbineID identifies the turbine, e.g. "12-A3".
	TurbineID string

	// Source is the file path this event came from.
	Source string

	// LineNum is the 1-based line number in the source file.
	LineNum int
}

// LogLine is a raw log line before classification.
type LogLine struct {
	// Content is the raw line text without its line terminator.
	Content string

	// Source is the file path this line came from.
	Source string

	// LineNum is the 1-based line number in the source file.
	LineNum int
}
