// Package detector identifies which event family a log file belongs to.
package detector

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/windops/turbinelog/pkg/config"
	"github.com/windops/turbinelog/pkg/parser"
)

// DefaultSampleSize is the number of non-empty lines sampled from a file.
const DefaultSampleSize = 1000

// DetectionResult holds the result of sampling a log file.
type DetectionResult struct {
	Matches      []FamilyMatch // Families that matched, sorted by match count descending
	SampledLines int           // Number of lines sampled
	MatchedLines int           // Lines matched by the best family
	MixedNote    string        // Set when more than one family matched
}

// FamilyMatch represents a family that matched with its confidence score.
type FamilyMatch struct {
	Family     string
	Confidence float64 // 0.0 to 1.0 (share of sampled lines matched)
	StartCount int
	StopCount  int
	SampleLine string    // First line that matched
	ParsedTime time.Time // Timestamp of SampleLine
	Turbines   []string  // Distinct turbine IDs seen, sorted
}

// MatchCount returns the number of start and stop lines matched.
func (m FamilyMatch) MatchCount() int {
	return m.StartCount + m.StopCount
}

type familyMatcher struct {
	name    string
	matcher *parser.LineMatcher
}

// Detector samples log files and scores them against configured families.
type Detector struct {
	families   []familyMatcher
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 1000).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// New creates a Detector for the families in a validated cfg.
func New(cfg *config.Config, opts ...Option) (*Detector, error) {
	d := &Detector{sampleSize: DefaultSampleSize}
	for i := range cfg.Families {
		fam := &cfg.Families[i]
		m, err := parser.NewLineMatcher(fam.CompiledStartPattern(), fam.CompiledStopPattern())
		if err != nil {
			return nil, fmt.Errorf("family %q: %w", fam.Name, err)
		}
		d.families = append(d.families, familyMatcher{name: fam.Name, matcher: m})
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// DetectFromFile samples a log file and returns the matching families.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines scores a slice of log lines. Lines whose timestamp does
// not parse are not counted.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{
		SampledLines: len(lines),
	}

	if len(lines) == 0 {
		return result
	}

	type familyStats struct {
		match    FamilyMatch
		turbines map[string]struct{}
	}
	stats := make(map[string]*familyStats)

	for _, line := range lines {
		for _, fm := range d.families {
			res, err := fm.matcher.Match(line)
			if err != nil || !res.Matched() {
				continue
			}

			s := stats[fm.name]
			if s == nil {
				s = &familyStats{
					match: FamilyMatch{
						Family:     fm.name,
						SampleLine: line,
						ParsedTime: res.Timestamp,
					},
					turbines: make(map[string]struct{}),
				}
				stats[fm.name] = s
			}
			if res.Kind == parser.MatchStart {
				s.match.StartCount++
			} else {
				s.match.StopCount++
			}
			s.turbines[res.TurbineID] = struct{}{}
		}
	}

	for _, s := range stats {
		m := s.match
		m.Confidence = float64(m.MatchCount()) / float64(len(lines))
		for id := range s.turbines {
			m.Turbines = append(m.Turbines, id)
		}
		sort.Strings(m.Turbines)
		result.Matches = append(result.Matches, m)
	}

	sort.Slice(result.Matches, func(i, j int) bool {
		if result.Matches[i].MatchCount() != result.Matches[j].MatchCount() {
			return result.Matches[i].MatchCount() > result.Matches[j].MatchCount()
		}
		return result.Matches[i].Family < result.Matches[j].Family
	})

	if len(result.Matches) > 0 {
		result.MatchedLines = result.Matches[0].MatchCount()
	}
	if len(result.Matches) > 1 {
		result.MixedNote = fmt.Sprintf("Lines from %d families were found. "+
			"Each parse reads one family; the others are ignored.", len(result.Matches))
	}

	return result
}

// sampleFile reads up to sampleSize non-empty lines from a file.
func (d *Detector) sampleFile(ctx context.Context, path string) ([]string, error) {
	source := parser.NewFileSource(path)
	defer source.Close()

	var lines []string
	for len(lines) < d.sampleSize {
		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line.Content) != "" {
			lines = append(lines, line.Content)
		}
	}

	return lines, nil
}

// BestMatch returns the family with the most matches, or nil if none.
func (r *DetectionResult) BestMatch() *FamilyMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one family matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}
