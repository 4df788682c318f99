package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MatchKind is the outcome of classifying one line.
type MatchKind int

const (
	NoMatch MatchKind = iota
	MatchStart
	MatchStop
)

// MatchResult is the classification of a single line. Timestamp and
// TurbineID are only set when Kind is MatchStart or MatchStop.
type MatchResult struct {
	Kind      MatchKind
	Timestamp time.Time
	TurbineID string
}

// Matched reports whether the line was a start or a stop.
func (r MatchResult) Matched() bool {
	return r.Kind != NoMatch
}

// EventKind converts a positive match into the corresponding event kind.
func (r MatchResult) EventKind() EventKind {
	if r.Kind == MatchStop {
		return KindStop
	}
	return KindStart
}

// LineMatcher classifies lines against one family's start and stop
// patterns. Each pattern captures the timestamp in group 1 and the turbine
// identifier in group 2.
type LineMatcher struct {
	start *regexp.Regexp
	stop  *regexp.Regexp
}

// NewLineMatcher creates a matcher from compiled start and stop patterns.
func NewLineMatcher(start, stop *regexp.Regexp) (*LineMatcher, error) {
	if start == nil || stop == nil {
		return nil, fmt.Errorf("start and stop patterns are required")
	}
	for name, re := range map[string]*regexp.Regexp{"start": start, "stop": stop} {
		if re.NumSubexp() < 2 {
			return nil, fmt.Errorf("%s pattern needs 2 capture groups (timestamp, turbine), has %d",
				name, re.NumSubexp())
		}
	}
	return &LineMatcher{start: start, stop: stop}, nil
}

// Match classifies line. The start pattern is tried before the stop pattern.
// A matched line with an unparseable timestamp returns a *TimestampError.
func (m *LineMatcher) Match(line string) (MatchResult, error) {
	line = strings.TrimSuffix(line, "\r")

	kind := MatchStart
	groups := m.start.FindStringSubmatch(line)
	if groups == nil {
		kind = MatchStop
		groups = m.stop.FindStringSubmatch(line)
	}
	if groups == nil {
		return MatchResult{}, nil
	}

	ts, err := ParseTimestamp(groups[1])
	if err != nil {
		return MatchResult{}, &TimestampError{Value: groups[1], Err: err}
	}

	return MatchResult{
		Kind:      kind,
		Timestamp: ts,
		TurbineID: groups[2],
	}, nil
}

// MatchLine classifies a LogLine and, on a match, returns the LogEvent.
// ok is false for lines that match neither pattern.
func (m *LineMatcher) MatchLine(line *LogLine) (event LogEvent, ok bool, err error) {
	res, err := m.Match(line.Content)
	if err != nil {
		var tsErr *TimestampError
		if errors.As(err, &tsErr) {
			tsErr.Source = line.Source
			tsErr.LineNum = line.LineNum
		}
		return LogEvent{}, false, err
	}
	if !res.Matched() {
		return LogEvent{}, false, nil
	}
	return LogEvent{
		Timestamp: res.Timestamp,
		Kind:      res.EventKind(),
		TurbineID: res.TurbineID,
		Source:    line.Source,
		LineNum:   line.LineNum,
	}, true, nil
}
