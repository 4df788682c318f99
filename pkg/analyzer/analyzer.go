package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/windops/turbinelog/pkg/config"
	"github.com/windops/turbinelog/pkg/parser"
)

// ErrWindowNotAllowed is returned when a time window is given for a family
// that does not support filtering.
var ErrWindowNotAllowed = errors.New("time window not supported for this family")

// Analyzer runs one family's pipeline over a line source:
// match, filter by window, optionally sort, then pair.
type Analyzer struct {
	family        string
	matcher       *parser.LineMatcher
	allowWindow   bool
	sortEvents    bool
	window        Window
	skipMalformed bool
	logger        *slog.Logger

	pairer *Pairer
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithWindow limits pairing to events inside w.
func WithWindow(w Window) AnalyzerOption {
	return func(a *Analyzer) {
		a.window = w
	}
}

// WithSort overrides the family's sort_events setting.
func WithSort(sorted bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.sortEvents = sorted
	}
}

// WithSkipMalformed skips matched lines with unparseable timestamps instead
// of failing the parse.
func WithSkipMalformed(skip bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.skipMalformed = skip
	}
}

// WithLogger sets a logger for debug traces of dropped events.
func WithLogger(l *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAnalyzer creates an analyzer for a validated family.
func NewAnalyzer(fam *config.FamilyConfig, opts ...AnalyzerOption) (*Analyzer, error) {
	matcher, err := parser.NewLineMatcher(fam.CompiledStartPattern(), fam.CompiledStopPattern())
	if err != nil {
		return nil, fmt.Errorf("family %q has uncompiled or invalid patterns: %w", fam.Name, err)
	}

	a := &Analyzer{
		family:      fam.Name,
		matcher:     matcher,
		allowWindow: fam.AllowWindow,
		sortEvents:  fam.SortEvents,
		logger:      slog.New(slog.DiscardHandler),
		pairer:      NewPairer(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if !a.window.IsZero() && !a.allowWindow {
		return nil, fmt.Errorf("%w: %s", ErrWindowNotAllowed, fam.Name)
	}

	return a, nil
}

// Family returns the family name this analyzer parses.
func (a *Analyzer) Family() string {
	return a.family
}

// Analyze reads every line of source and returns the closed intervals with
// drop diagnostics. Pending starts from this run stay available through
// PendingStarts until the next call.
func (a *Analyzer) Analyze(ctx context.Context, source parser.LineSource) (*FileResult, error) {
	result := &FileResult{
		Family:    a.family,
		StartTime: time.Now(),
	}
	diag := &result.Diagnostics

	var events []parser.LogEvent
	for {
		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if result.Source == "" {
			result.Source = line.Source
		}
		diag.LinesRead++

		ev, ok, err := a.matcher.MatchLine(line)
		if err != nil {
			if a.skipMalformed && errors.Is(err, parser.ErrTimestampParse) {
				diag.MalformedLines++
				a.logger.Debug("skipping malformed timestamp", "error", err)
				continue
			}
			return nil, err
		}
		if !ok {
			continue
		}

		if ev.Kind == parser.KindStart {
			diag.StartEvents++
		} else {
			diag.StopEvents++
		}
		events = append(events, ev)
	}

	if a.window.IsPartial() {
		diag.PartialWindow = true
		a.logger.Debug("partial time window ignored", "window", a.window.String())
	}
	events, diag.FilteredOut = FilterEvents(events, a.window)

	if a.sortEvents {
		SortEvents(events)
		diag.Sorted = true
	}

	a.pairer.Reset()
	for _, ev := range events {
		a.pairer.Process(ev)
	}
	intervals, stats := a.pairer.Finalize()

	diag.OverwrittenStarts = stats.OverwrittenStarts
	diag.OrphanStops = stats.OrphanStops
	diag.UnmatchedStarts = stats.UnmatchedStarts
	diag.NegativeDurations = stats.NegativeDurations

	result.Intervals = intervals
	result.EndTime = time.Now()

	a.logger.Debug("parse complete",
		"family", a.family,
		"source", result.Source,
		"intervals", len(intervals),
		"dropped", diag.Dropped())

	return result, nil
}

// PendingStarts returns the starts left open by the last Analyze call.
func (a *Analyzer) PendingStarts() []PendingStart {
	return a.pairer.PendingStarts()
}
