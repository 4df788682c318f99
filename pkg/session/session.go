// Package session holds the interval ledger that accumulates across parses.
//
// A Session is owned by its caller. The CLI creates one per invocation; a
// desktop front end keeps one for as long as its window is open.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/windops/turbinelog/pkg/analyzer"
	"github.com/windops/turbinelog/pkg/config"
	"github.com/windops/turbinelog/pkg/output"
	"github.com/windops/turbinelog/pkg/parser"
)

// Session is an append-only interval ledger plus the history of the parses
// that filled it. It is not safe for concurrent use.
type Session struct {
	id        string
	createdAt time.Time
	cfg       *config.Config
	logger    *slog.Logger

	ledger  []analyzer.Interval
	results []*analyzer.FileResult
}

// Option configures a Session.
type Option func(*Session)

// WithLogger passes l to every analyzer the session creates.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithID sets the session identifier instead of generating one.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// New creates an empty session over cfg. A nil cfg uses the built-in
// families.
func New(cfg *config.Config, opts ...Option) *Session {
	if cfg == nil {
		cfg = config.DefaultConfig()
		if err := config.Validate(cfg); err != nil {
			panic(err) // built-in patterns always compile
		}
	}
	s := &Session{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		cfg:       cfg,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Config returns the configuration the session parses with.
func (s *Session) Config() *config.Config {
	return s.cfg
}

// Parse runs family over the file at path and appends the resulting
// intervals to the ledger. On any error the ledger is left unchanged.
// Extra analyzer options are applied after the session defaults.
func (s *Session) Parse(ctx context.Context, family, path string, window analyzer.Window, opts ...analyzer.AnalyzerOption) (*analyzer.FileResult, error) {
	fam, err := s.cfg.Family(family)
	if err != nil {
		return nil, err
	}

	base := []analyzer.AnalyzerOption{
		analyzer.WithWindow(window),
		analyzer.WithSkipMalformed(s.cfg.SkipMalformed),
		analyzer.WithLogger(s.logger),
	}
	a, err := analyzer.NewAnalyzer(fam, append(base, opts...)...)
	if err != nil {
		return nil, err
	}

	source := parser.NewFileSource(path)
	defer source.Close()

	result, err := a.Analyze(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s as %s: %w", path, fam.Name, err)
	}
	if result.Source == "" {
		result.Source = path
	}

	s.ledger = append(s.ledger, result.Intervals...)
	s.results = append(s.results, result)
	return result, nil
}

// Intervals returns a copy of the ledger in append order.
func (s *Session) Intervals() []analyzer.Interval {
	out := make([]analyzer.Interval, len(s.ledger))
	copy(out, s.ledger)
	return out
}

// Len returns the number of intervals in the ledger.
func (s *Session) Len() int {
	return len(s.ledger)
}

// Results returns the successful parses in the order they ran.
func (s *Session) Results() []*analyzer.FileResult {
	out := make([]*analyzer.FileResult, len(s.results))
	copy(out, s.results)
	return out
}

// Clear empties the ledger and the parse history.
func (s *Session) Clear() {
	s.ledger = nil
	s.results = nil
}

// Export writes the ledger to path as CSV. The ledger is not modified.
func (s *Session) Export(path string) error {
	return output.ExportCSV(path, s.ledger)
}

// Report builds a renderable report of the current ledger.
func (s *Session) Report() *output.Report {
	return output.NewReport(s.id, s.Intervals(), s.Results())
}
