package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/windops/turbinelog/pkg/detector"
	"github.com/windops/turbinelog/pkg/parser"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output     string
	SampleSize int
	ShowAll    bool
}

// NewDetectCommand creates the detect command.
func NewDetectCommand(global *GlobalOptions) *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Detect which event family a log file contains",
		Long: `Sample a log file and report which event family its lines belong to.

Each configured family's start and stop patterns are tried against the
sampled lines. The family with the most matches is reported with its
confidence, the turbines it saw and an example line.

Example:
  turbinelog detect logs/2024-05-01.txt
  turbinelog detect --sample 5000 --all logs/large.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", detector.DefaultSampleSize, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show every matching family, not just the best match")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, global *GlobalOptions, opts *DetectOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("%w: log file not found: %s", parser.ErrFileNotReadable, logFile)
	}

	cfg, err := global.LoadConfig(ctx)
	if err != nil {
		return err
	}

	d, err := detector.New(cfg, detector.WithSampleSize(opts.SampleSize))
	if err != nil {
		return fmt.Errorf("creating detector: %w", err)
	}

	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	w := cmd.OutOrStdout()
	switch opts.Output {
	case "json":
		return outputDetectJSON(w, result, logFile, opts)
	case "text":
		return outputDetectText(w, result, logFile, opts)
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	fmt.Fprintln(w, "=== Event Family Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Lines sampled: %s\n", humanize.Comma(int64(result.SampledLines)))
	fmt.Fprintf(w, "Lines matched: %s\n", humanize.Comma(int64(result.MatchedLines)))
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No event family detected.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: check that the file contains StartleController or MuninController lines,")
		fmt.Fprintln(w, "or add a family for this log shape to your config file.")
		return nil
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Detected Family: %s\n", best.Family)
	fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d lines matched)\n",
		best.Confidence*100, best.MatchCount(), result.SampledLines)
	fmt.Fprintf(w, "Events: %d start, %d stop\n", best.StartCount, best.StopCount)
	fmt.Fprintf(w, "Turbines: %d\n", len(best.Turbines))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sample match:\n  %s\n", best.SampleLine)
	fmt.Fprintf(w, "Parsed as: %s\n", parser.FormatTimestamp(best.ParsedTime))
	fmt.Fprintln(w)

	if result.MixedNote != "" {
		fmt.Fprintf(w, "Note: %s\n", result.MixedNote)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Parse with:\n  turbinelog parse %s %s\n", best.Family, logFile)
	fmt.Fprintln(w)

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Other families detected ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%.1f%% confidence, %d start, %d stop)\n",
				i+2, m.Family, m.Confidence*100, m.StartCount, m.StopCount)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// JSONMatch represents a family match in JSON output.
type JSONMatch struct {
	Family     string   `json:"family"`
	Confidence float64  `json:"confidence"`
	StartCount int      `json:"start_count"`
	StopCount  int      `json:"stop_count"`
	Turbines   []string `json:"turbines"`
	SampleLine string   `json:"sample_line"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File         string      `json:"file"`
	Matches      []JSONMatch `json:"matches"`
	SampledLines int         `json:"sampled_lines"`
	MatchedLines int         `json:"matched_lines"`
	MixedNote    string      `json:"mixed_note,omitempty"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	out := JSONOutput{
		File:         logFile,
		SampledLines: result.SampledLines,
		MatchedLines: result.MatchedLines,
		MixedNote:    result.MixedNote,
		Matches:      make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1] // Only show best match
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Family:     m.Family,
			Confidence: m.Confidence,
			StartCount: m.StartCount,
			StopCount:  m.StopCount,
			Turbines:   m.Turbines,
			SampleLine: m.SampleLine,
		})
	}

	data, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
