package analyzer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/windops/turbinelog/pkg/parser"
)

// ErrWindowParse is returned when a time window bound is malformed or the
// bounds are inverted.
var ErrWindowParse = errors.New("invalid time window")

// Window is an optional inclusive time range. Any timestamp, including the
// zero time, can be a bound. The zero Window has no bounds.
type Window struct {
	start, end       time.Time
	hasStart, hasEnd bool
}

// NewWindow returns a complete window from start to end.
func NewWindow(start, end time.Time) Window {
	return Window{}.WithStart(start).WithEnd(end)
}

// WithStart returns a copy of w with its lower bound set.
func (w Window) WithStart(t time.Time) Window {
	w.start, w.hasStart = t, true
	return w
}

// WithEnd returns a copy of w with its upper bound set.
func (w Window) WithEnd(t time.Time) Window {
	w.end, w.hasEnd = t, true
	return w
}

// ParseWindow parses two window bounds in YYYY-MM-DD HH:MM:SS[.ffffff]
// form. Empty strings mean "no bound".
func ParseWindow(start, end string) (Window, error) {
	var w Window

	if s := strings.TrimSpace(start); s != "" {
		ts, err := parser.ParseTimestamp(s)
		if err != nil {
			return Window{}, fmt.Errorf("%w: start: %w", ErrWindowParse, err)
		}
		w = w.WithStart(ts)
	}
	if s := strings.TrimSpace(end); s != "" {
		ts, err := parser.ParseTimestamp(s)
		if err != nil {
			return Window{}, fmt.Errorf("%w: end: %w", ErrWindowParse, err)
		}
		w = w.WithEnd(ts)
	}
	if w.IsComplete() && w.start.After(w.end) {
		return Window{}, fmt.Errorf("%w: start %s is after end %s", ErrWindowParse,
			parser.FormatTimestamp(w.start), parser.FormatTimestamp(w.end))
	}

	return w, nil
}

// Start returns the lower bound and whether it is set.
func (w Window) Start() (time.Time, bool) {
	return w.start, w.hasStart
}

// End returns the upper bound and whether it is set.
func (w Window) End() (time.Time, bool) {
	return w.end, w.hasEnd
}

// IsZero reports whether neither bound is set.
func (w Window) IsZero() bool {
	return !w.hasStart && !w.hasEnd
}

// IsComplete reports whether both bounds are set.
func (w Window) IsComplete() bool {
	return w.hasStart && w.hasEnd
}

// IsPartial reports whether exactly one bound is set. A partial window does
// not filter.
func (w Window) IsPartial() bool {
	return w.hasStart != w.hasEnd
}

// Contains reports whether ts is retained by the window. Only a complete
// window rejects anything; both ends are inclusive.
func (w Window) Contains(ts time.Time) bool {
	if !w.IsComplete() {
		return true
	}
	return !ts.Before(w.start) && !ts.After(w.end)
}

// String renders the window for reports.
func (w Window) String() string {
	if w.IsZero() {
		return "none"
	}
	bound := func(t time.Time, ok bool) string {
		if !ok {
			return "-"
		}
		return parser.FormatTimestamp(t)
	}
	return bound(w.start, w.hasStart) + " .. " + bound(w.end, w.hasEnd)
}

// FilterEvents returns the events w retains, preserving order, and the
// number removed.
func FilterEvents(events []parser.LogEvent, w Window) ([]parser.LogEvent, int) {
	if !w.IsComplete() {
		return events, 0
	}
	kept := make([]parser.LogEvent, 0, len(events))
	for _, ev := range events {
		if w.Contains(ev.Timestamp) {
			kept = append(kept, ev)
		}
	}
	return kept, len(events) - len(kept)
}
