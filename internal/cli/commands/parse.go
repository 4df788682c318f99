package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/windops/turbinelog/pkg/analyzer"
	"github.com/windops/turbinelog/pkg/detector"
	"github.com/windops/turbinelog/pkg/output"
	"github.com/windops/turbinelog/pkg/parser"
	"github.com/windops/turbinelog/pkg/session"
)

// FamilyAuto selects the family per file by detection.
const FamilyAuto = "auto"

// ParseOptions holds command-line options for the parse command.
type ParseOptions struct {
	Output        string
	Export        string
	From          string
	To            string
	Sort          bool
	NoSort        bool
	SkipMalformed bool
	Verbose       bool
	Quiet         bool
}

// NewParseCommand creates the parse command.
func NewParseCommand(global *GlobalOptions) *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <family|auto> <log-file>...",
		Short: "Extract start/stop intervals from turbine logs",
		Long: `Parse turbine log files and pair each start event with the next stop
event for the same turbine.

Families:
  startle      Play/Stop startle speaker triggers (supports --from/--to)
  regulation   PAUSE DONE/RUN DONE regulation cycles (sorted before pairing)
  auto         Detect the family of each file

Files are parsed one after another into a single session. Directories
contribute their .txt and .log files; glob patterns are expanded.

Exit codes:
  0 - Success
  2 - Configuration or runtime error

Example:
  turbinelog parse startle logs/2024-05-01.txt
  turbinelog parse startle --from "2024-05-01 08:00:00" --to "2024-05-01 18:00:00" logs/
  turbinelog parse regulation -e regulation.csv logs/*.log`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output format (text|json|csv), default from config")
	cmd.Flags().StringVarP(&opts.Export, "export", "e", "", "Write the intervals to a CSV file")
	cmd.Flags().StringVar(&opts.From, "from", "", "Window start, YYYY-MM-DD HH:MM:SS[.ffffff]")
	cmd.Flags().StringVar(&opts.To, "to", "", "Window end, YYYY-MM-DD HH:MM:SS[.ffffff]")
	cmd.Flags().BoolVar(&opts.Sort, "sort", false, "Sort events by timestamp before pairing")
	cmd.Flags().BoolVar(&opts.NoSort, "no-sort", false, "Pair events in file order")
	cmd.Flags().BoolVar(&opts.SkipMalformed, "skip-malformed", false, "Skip lines with unparseable timestamps instead of failing")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show per-turbine and per-file details")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	cmd.MarkFlagsMutuallyExclusive("sort", "no-sort")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	return cmd
}

func runParse(cmd *cobra.Command, args []string, global *GlobalOptions, opts *ParseOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := global.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	cfg, err := global.LoadConfig(ctx)
	if err != nil {
		return err
	}
	if opts.SkipMalformed {
		cfg.SkipMalformed = true
	}

	format := opts.Output
	if format == "" {
		format = cfg.Output.Format
	}
	formatter, err := output.NewFormatter(format, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
		Width:   outputWidth(cmd),
	})
	if err != nil {
		return err
	}

	window, err := analyzer.ParseWindow(opts.From, opts.To)
	if err != nil {
		return err
	}
	if window.IsPartial() {
		logger.Warn("only one time bound given; the window is ignored", "window", window.String())
	}

	files, err := parser.ExpandLogPaths(args[1:], parser.DefaultLogExtensions)
	if err != nil {
		return fmt.Errorf("expanding log paths: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no log files matched: %s", strings.Join(args[1:], " "))
	}

	var extra []analyzer.AnalyzerOption
	switch {
	case opts.Sort:
		extra = append(extra, analyzer.WithSort(true))
	case opts.NoSort:
		extra = append(extra, analyzer.WithSort(false))
	}

	var det *detector.Detector
	if strings.EqualFold(args[0], FamilyAuto) {
		if det, err = detector.New(cfg); err != nil {
			return fmt.Errorf("creating detector: %w", err)
		}
	} else if _, err := cfg.Family(args[0]); err != nil {
		return err
	}

	s := session.New(cfg, session.WithLogger(logger))
	for _, file := range files {
		family := args[0]
		if det != nil {
			if family, err = detectFamily(ctx, det, file); err != nil {
				return err
			}
			logger.Info("detected family", "file", file, "family", family)
		}

		fileWindow := window
		if det != nil && !window.IsZero() {
			if fam, err := cfg.Family(family); err == nil && !fam.AllowWindow {
				logger.Warn("family does not support a time window; parsing without it",
					"file", file, "family", family)
				fileWindow = analyzer.Window{}
			}
		}

		result, err := s.Parse(ctx, family, file, fileWindow, extra...)
		if err != nil {
			return err
		}
		logParseResult(logger, result)
	}

	if opts.Export != "" {
		if err := s.Export(opts.Export); err != nil {
			return err
		}
		logger.Info("exported intervals", "path", opts.Export, "intervals", s.Len())
	}

	if err := formatter.Format(ctx, s.Report(), cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	return nil
}

func detectFamily(ctx context.Context, det *detector.Detector, file string) (string, error) {
	result, err := det.DetectFromFile(ctx, file)
	if err != nil {
		return "", fmt.Errorf("detecting family of %s: %w", file, err)
	}
	best := result.BestMatch()
	if best == nil {
		return "", fmt.Errorf("no known event family found in %s", file)
	}
	return best.Family, nil
}

func logParseResult(logger *slog.Logger, result *analyzer.FileResult) {
	d := result.Diagnostics
	logger.Debug("parsed file",
		"file", result.Source,
		"family", result.Family,
		"lines", d.LinesRead,
		"intervals", len(result.Intervals))

	if d.HasDrops() {
		logger.Info("events dropped",
			"file", result.Source,
			"outside_window", d.FilteredOut,
			"malformed", d.MalformedLines,
			"overwritten_starts", d.OverwrittenStarts,
			"orphan_stops", d.OrphanStops,
			"unmatched_starts", d.UnmatchedStarts,
			"negative_durations", d.NegativeDurations)
	}
}

// outputWidth reports the terminal width when the command writes to a
// terminal on stdout.
func outputWidth(cmd *cobra.Command) int {
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		return output.TerminalWidth(f)
	}
	return 0
}
