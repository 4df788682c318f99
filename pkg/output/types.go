// Package output provides formatting and CSV export of interval results.
package output

import (
	"sort"
	"time"

	"github.com/windops/turbinelog/pkg/analyzer"
)

// Report is the complete rendering input for one session.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Intervals is the session ledger, in ledger order.
	Intervals []analyzer.Interval `json:"intervals"`

	// Turbines aggregates intervals per turbine, sorted by turbine ID.
	Turbines []TurbineSummary `json:"turbines"`

	// Files lists each parse that contributed to the ledger.
	Files []FileSummary `json:"files"`

	// Metadata provides context about the session.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	Files        int                  `json:"files"`
	Intervals    int                  `json:"intervals"`
	Turbines     int                  `json:"turbines"`
	TotalSeconds float64              `json:"total_seconds"`
	Diagnostics  analyzer.Diagnostics `json:"diagnostics"`
}

// TurbineSummary aggregates the intervals of one turbine.
type TurbineSummary struct {
	TurbineID    string  `json:"turbine_id"`
	Intervals    int     `json:"intervals"`
	TotalSeconds float64 `json:"total_seconds"`
	MaxSeconds   float64 `json:"max_seconds"`
}

// FileSummary describes one parsed file without repeating its intervals.
type FileSummary struct {
	Source      string               `json:"source"`
	Family      string               `json:"family"`
	Intervals   int                  `json:"intervals"`
	Diagnostics analyzer.Diagnostics `json:"diagnostics"`
}

// Metadata provides context about the session.
type Metadata struct {
	SessionID   string    `json:"session_id"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewReport builds a Report from a ledger and the parses that filled it.
func NewReport(sessionID string, intervals []analyzer.Interval, files []*analyzer.FileResult) *Report {
	report := &Report{
		Intervals: intervals,
		Metadata: Metadata{
			SessionID:   sessionID,
			GeneratedAt: time.Now(),
		},
	}
	if report.Intervals == nil {
		report.Intervals = []analyzer.Interval{}
	}

	for _, f := range files {
		report.Files = append(report.Files, FileSummary{
			Source:      f.Source,
			Family:      f.Family,
			Intervals:   len(f.Intervals),
			Diagnostics: f.Diagnostics,
		})
		report.Summary.Diagnostics.Add(f.Diagnostics)
	}

	byTurbine := make(map[string]*TurbineSummary)
	for _, iv := range intervals {
		ts, ok := byTurbine[iv.TurbineID]
		if !ok {
			ts = &TurbineSummary{TurbineID: iv.TurbineID}
			byTurbine[iv.TurbineID] = ts
		}
		ts.Intervals++
		ts.TotalSeconds += iv.DurationSeconds
		if iv.DurationSeconds > ts.MaxSeconds {
			ts.MaxSeconds = iv.DurationSeconds
		}
		report.Summary.TotalSeconds += iv.DurationSeconds
	}
	for _, ts := range byTurbine {
		report.Turbines = append(report.Turbines, *ts)
	}
	sort.Slice(report.Turbines, func(i, j int) bool {
		return report.Turbines[i].TurbineID < report.Turbines[j].TurbineID
	})

	report.Summary.Files = len(files)
	report.Summary.Intervals = len(intervals)
	report.Summary.Turbines = len(report.Turbines)

	return report
}

// HasDrops reports whether any contributing parse dropped events.
func (r *Report) HasDrops() bool {
	return r.Summary.Diagnostics.HasDrops()
}
