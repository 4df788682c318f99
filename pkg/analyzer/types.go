// Package analyzer turns classified start/stop events into closed
// per-turbine intervals.
package analyzer

import (
	"time"
)

// Interval is a closed start/stop pair for one turbine.
type Interval struct {
	Start           time.Time `json:"start"`
	Stop            time.Time `json:"stop"`
	DurationSeconds float64   `json:"duration_seconds"`
	TurbineID       string    `json:"turbine_id"`
}

// Duration returns the interval length as a time.Duration.
func (i Interval) Duration() time.Duration {
	return i.Stop.Sub(i.Start)
}

// Diagnostics counts what a parse read and what it dropped. Dropped events
// are not errors; they are reported so callers can surface them.
type Diagnostics struct {
	// LinesRead is the number of lines examined.
	LinesRead int `json:"lines_read"`

	// StartEvents and StopEvents count matched lines, before filtering.
	StartEvents int `json:"start_events"`
	StopEvents  int `json:"stop_events"`

	// FilteredOut counts events outside the time window.
	FilteredOut int `json:"filtered_out"`

	// MalformedLines counts matched lines skipped for a bad timestamp.
	MalformedLines int `json:"malformed_lines"`

	// OverwrittenStarts counts starts replaced by a later start for the
	// same turbine before any stop arrived.
	OverwrittenStarts int `json:"overwritten_starts"`

	// OrphanStops counts stops with no pending start for their turbine.
	OrphanStops int `json:"orphan_stops"`

	// UnmatchedStarts counts starts still pending at end of input.
	UnmatchedStarts int `json:"unmatched_starts"`

	// NegativeDurations counts pairings discarded because stop < start.
	NegativeDurations int `json:"negative_durations"`

	// PartialWindow is set when only one window bound was supplied and the
	// window was therefore ignored.
	PartialWindow bool `json:"partial_window"`

	// Sorted records whether events were sorted before pairing.
	Sorted bool `json:"sorted"`
}

// Dropped returns the number of matched events that did not end up in an
// interval.
func (d Diagnostics) Dropped() int {
	return d.FilteredOut + d.MalformedLines + d.OverwrittenStarts +
		d.OrphanStops + d.UnmatchedStarts + 2*d.NegativeDurations
}

// HasDrops reports whether any event was discarded or the window ignored.
func (d Diagnostics) HasDrops() bool {
	return d.Dropped() > 0 || d.PartialWindow
}

// Add accumulates other into d.
func (d *Diagnostics) Add(other Diagnostics) {
	d.LinesRead += other.LinesRead
	d.StartEvents += other.StartEvents
	d.StopEvents += other.StopEvents
	d.FilteredOut += other.FilteredOut
	d.MalformedLines += other.MalformedLines
	d.OverwrittenStarts += other.OverwrittenStarts
	d.OrphanStops += other.OrphanStops
	d.UnmatchedStarts += other.UnmatchedStarts
	d.NegativeDurations += other.NegativeDurations
	d.PartialWindow = d.PartialWindow || other.PartialWindow
	d.Sorted = d.Sorted || other.Sorted
}

// FileResult is the outcome of parsing one log file.
type FileResult struct {
	// Source is the file path.
	Source string `json:"source"`

	// Family is the event family the file was parsed as.
	Family string `json:"family"`

	// Intervals are ordered by the stop event that closed them.
	Intervals []Interval `json:"intervals"`

	Diagnostics Diagnostics `json:"diagnostics"`

	// StartTime and EndTime bracket the parse.
	StartTime time.Time `json:"started_at"`
	EndTime   time.Time `json:"finished_at"`
}
