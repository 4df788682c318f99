package analyzer

import (
	"sort"
	"time"

	"github.com/windops/turbinelog/pkg/parser"
)

// pendingStart is an open interval awaiting its stop.
type pendingStart struct {
	turbineID string
	startTime time.Time
	source    string
	lineNum   int
}

// PairStats counts the events the pairer could not turn into intervals.
type PairStats struct {
	OverwrittenStarts int
	OrphanStops       int
	UnmatchedStarts   int
	NegativeDurations int
}

// Pairer matches start and stop events per turbine. At most one start is
// pending per turbine; a second start replaces the first. Events are
// consumed in the order they are given.
type Pairer struct {
	pending   map[string]*pendingStart // key: turbine ID
	intervals []Interval
	stats     PairStats
}

// NewPairer creates an empty pairer.
func NewPairer() *Pairer {
	return &Pairer{pending: make(map[string]*pendingStart)}
}

// Process handles a single event.
func (p *Pairer) Process(ev parser.LogEvent) {
	switch ev.Kind {
	case parser.KindStart:
		if _, exists := p.pending[ev.TurbineID]; exists {
			p.stats.OverwrittenStarts++
		}
		p.pending[ev.TurbineID] = &pendingStart{
			turbineID: ev.TurbineID,
			startTime: ev.Timestamp,
			source:    ev.Source,
			lineNum:   ev.LineNum,
		}

	case parser.KindStop:
		open, exists := p.pending[ev.TurbineID]
		if !exists {
			p.stats.OrphanStops++
			return
		}
		delete(p.pending, ev.TurbineID)

		elapsed := ev.Timestamp.Sub(open.startTime)
		if elapsed < 0 {
			p.stats.NegativeDurations++
			return
		}
		p.intervals = append(p.intervals, Interval{
			Start:           open.startTime,
			Stop:            ev.Timestamp,
			DurationSeconds: seconds(elapsed),
			TurbineID:       ev.TurbineID,
		})
	}
}

// Finalize returns the intervals in the order their stops were processed.
// Starts still pending are counted as unmatched and produce no interval;
// they remain visible through PendingStarts until Reset.
func (p *Pairer) Finalize() ([]Interval, PairStats) {
	stats := p.stats
	stats.UnmatchedStarts = len(p.pending)
	return p.intervals, stats
}

// Reset clears internal state for reuse.
func (p *Pairer) Reset() {
	p.pending = make(map[string]*pendingStart)
	p.intervals = nil
	p.stats = PairStats{}
}

// PendingStart describes a start that has not been closed.
type PendingStart struct {
	TurbineID string    `json:"turbine_id"`
	StartTime time.Time `json:"start_time"`
	Source    string    `json:"source"`
	LineNum   int       `json:"line_num"`
}

// PendingStarts returns the open starts ordered by start time.
func (p *Pairer) PendingStarts() []PendingStart {
	out := make([]PendingStart, 0, len(p.pending))
	for _, open := range p.pending {
		out = append(out, PendingStart{
			TurbineID: open.turbineID,
			StartTime: open.startTime,
			Source:    open.source,
			LineNum:   open.lineNum,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].TurbineID < out[j].TurbineID
	})
	return out
}

// PairEvents pairs a complete event sequence in the given order.
func PairEvents(events []parser.LogEvent) ([]Interval, PairStats) {
	p := NewPairer()
	for _, ev := range events {
		p.Process(ev)
	}
	return p.Finalize()
}

// SortEvents orders events by timestamp. Events with equal timestamps keep
// their relative order.
func SortEvents(events []parser.LogEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}

// seconds converts d to fractional seconds from whole microseconds, the
// precision of the log timestamps.
func seconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1e6
}
