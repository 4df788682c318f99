package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/windops/turbinelog/pkg/analyzer"
	"github.com/windops/turbinelog/pkg/config"
	"github.com/windops/turbinelog/pkg/detector"
	"github.com/windops/turbinelog/pkg/parser"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	From    string
	To      string
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// maxPendingDetails caps the pending starts listed in one check.
const maxPendingDetails = 10

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand(global *GlobalOptions) *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <family> <log-file>",
		Short: "Explain which events a parse would drop",
		Long: `Diagnose a log file against one event family.

This command checks:
- The configuration and the family definition
- The log file's existence and accessibility
- Whether the file's lines belong to the family
- Timestamps that cannot be parsed
- Events dropped by pairing (overwritten starts, orphan stops,
  unmatched starts, negative durations) and by the time window

Example:
  turbinelog diagnose startle logs/2024-05-01.txt
  turbinelog diagnose -v regulation logs/2024-05-01.txt  # verbose output`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			results := runDiagnose(ctx, global, args[0], args[1], opts)
			printDiagnostics(cmd.OutOrStdout(), results, opts)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "Window start to check against")
	cmd.Flags().StringVar(&opts.To, "to", "", "Window end to check against")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, global *GlobalOptions, family, logFile string, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	// 1. Load configuration
	cfg, result := checkConfig(ctx, global)
	results = append(results, result)
	if result.Status == "error" {
		return results
	}

	// 2. Look up the family
	fam, result := checkFamily(cfg, family)
	results = append(results, result)
	if result.Status == "error" {
		return results
	}

	// 3. Check the log file
	result = checkLogFile(logFile)
	results = append(results, result)
	if result.Status == "error" {
		return results
	}

	// 4. Check the window
	window, result := checkWindow(fam, opts)
	results = append(results, result)
	if result.Status == "error" {
		return results
	}

	// 5. Check the file contains this family
	results = append(results, checkFamilyMatch(ctx, cfg, fam, logFile))

	// 6. Parse and report drops
	results = append(results, checkParse(ctx, cfg, fam, logFile, window)...)

	return results
}

func checkConfig(ctx context.Context, global *GlobalOptions) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Configuration",
	}

	cfg, err := global.LoadConfig(ctx)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	if global.ConfigPath == "" {
		result.Message = "Using built-in families"
	} else {
		result.Message = fmt.Sprintf("Loaded %s", global.ConfigPath)
	}
	result.Details = []string{
		fmt.Sprintf("Families: %s", strings.Join(cfg.FamilyNames(), ", ")),
		fmt.Sprintf("Skip malformed: %t", cfg.SkipMalformed),
	}
	return cfg, result
}

func checkFamily(cfg *config.Config, name string) (*config.FamilyConfig, DiagnosticResult) {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Family: %s", name),
	}

	fam, err := cfg.Family(name)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		result.Suggests = []string{
			"Use 'turbinelog detect <log-file>' to find the family of a file",
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = fam.Description
	if result.Message == "" {
		result.Message = "Family defined"
	}
	result.Details = []string{
		fmt.Sprintf("Start pattern: %s", fam.StartPattern),
		fmt.Sprintf("Stop pattern: %s", fam.StopPattern),
		fmt.Sprintf("Sort events: %t", fam.SortEvents),
		fmt.Sprintf("Time window allowed: %t", fam.AllowWindow),
	}
	return fam, result
}

func checkLogFile(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Log File: %s", path),
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = "File not found"
		result.Suggests = []string{"Check the file path is correct"}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}

	f, err := os.Open(path) // #nosec G304 -- user-provided path
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	_ = f.Close()

	if info.Size() == 0 {
		result.Status = "warning"
		result.Message = "File is empty"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Readable (%s)", humanize.Bytes(uint64(info.Size()))) // #nosec G115 -- size is non-negative
	return result
}

func checkWindow(fam *config.FamilyConfig, opts *DiagnoseOptions) (analyzer.Window, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Time Window",
	}

	window, err := analyzer.ParseWindow(opts.From, opts.To)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		result.Suggests = []string{
			"Use the form YYYY-MM-DD HH:MM:SS or YYYY-MM-DD HH:MM:SS.ffffff",
			"The window start must not be after its end",
		}
		return window, result
	}

	switch {
	case window.IsZero():
		result.Status = "ok"
		result.Message = "No window; every event is considered"
	case !fam.AllowWindow:
		result.Status = "error"
		result.Message = fmt.Sprintf("Family %s does not support a time window", fam.Name)
		result.Suggests = []string{"Remove --from and --to for this family"}
	case window.IsPartial():
		result.Status = "warning"
		result.Message = "Only one bound given; the window is ignored and every event is kept"
		result.Suggests = []string{"Give both --from and --to to filter events"}
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("Window %s", window)
	}
	return window, result
}

func checkFamilyMatch(ctx context.Context, cfg *config.Config, fam *config.FamilyConfig, logFile string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Family Match",
	}

	d, err := detector.New(cfg)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		return result
	}
	det, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		return result
	}

	var own *detector.FamilyMatch
	for i := range det.Matches {
		if det.Matches[i].Family == fam.Name {
			own = &det.Matches[i]
		}
	}

	best := det.BestMatch()
	switch {
	case own == nil:
		result.Status = "warning"
		result.Message = fmt.Sprintf("No %s lines in the first %s sampled lines",
			fam.Name, humanize.Comma(int64(det.SampledLines)))
		if best != nil {
			result.Suggests = []string{
				fmt.Sprintf("The file looks like %s: turbinelog parse %s %s", best.Family, best.Family, logFile),
			}
		}
	case best != nil && best.Family != fam.Name:
		result.Status = "warning"
		result.Message = fmt.Sprintf("File has more %s lines (%d) than %s lines (%d)",
			best.Family, best.MatchCount(), fam.Name, own.MatchCount())
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("%.1f%% of sampled lines are %s events", own.Confidence*100, fam.Name)
		result.Details = []string{
			fmt.Sprintf("Sample: %s", truncate(own.SampleLine, 120)),
			fmt.Sprintf("Turbines: %s", strings.Join(own.Turbines, ", ")),
		}
	}
	return result
}

func checkParse(ctx context.Context, cfg *config.Config, fam *config.FamilyConfig, logFile string, window analyzer.Window) []DiagnosticResult {
	a, err := analyzer.NewAnalyzer(fam,
		analyzer.WithWindow(window),
		analyzer.WithSkipMalformed(true),
	)
	if err != nil {
		return []DiagnosticResult{{
			Check:   "Parse",
			Status:  "error",
			Message: err.Error(),
		}}
	}

	source := parser.NewFileSource(logFile)
	defer source.Close()

	res, err := a.Analyze(ctx, source)
	if err != nil {
		return []DiagnosticResult{{
			Check:   "Parse",
			Status:  "error",
			Message: err.Error(),
		}}
	}
	d := res.Diagnostics

	results := []DiagnosticResult{checkTimestamps(cfg, d)}

	pairing := DiagnosticResult{
		Check: "Pairing",
		Details: []string{
			fmt.Sprintf("Lines read: %s", humanize.Comma(int64(d.LinesRead))),
			fmt.Sprintf("Start events: %d, stop events: %d", d.StartEvents, d.StopEvents),
			fmt.Sprintf("Sorted before pairing: %t", d.Sorted),
		},
	}
	if d.FilteredOut > 0 {
		pairing.Details = append(pairing.Details,
			fmt.Sprintf("Outside window: %d events", d.FilteredOut))
	}

	pairDrops := d.OverwrittenStarts + d.OrphanStops + d.UnmatchedStarts + d.NegativeDurations
	if pairDrops == 0 {
		pairing.Status = "ok"
		pairing.Message = fmt.Sprintf("%d intervals, every event paired", len(res.Intervals))
		results = append(results, pairing)
		return results
	}

	pairing.Status = "warning"
	pairing.Message = fmt.Sprintf("%d intervals, some events could not be paired", len(res.Intervals))
	if d.OverwrittenStarts > 0 {
		pairing.Details = append(pairing.Details,
			fmt.Sprintf("Overwritten starts: %d (a second start arrived before the stop)", d.OverwrittenStarts))
	}
	if d.OrphanStops > 0 {
		pairing.Details = append(pairing.Details,
			fmt.Sprintf("Orphan stops: %d (no pending start for the turbine)", d.OrphanStops))
	}
	if d.NegativeDurations > 0 {
		pairing.Details = append(pairing.Details,
			fmt.Sprintf("Negative durations: %d (stop earlier than start)", d.NegativeDurations))
		if !d.Sorted {
			pairing.Suggests = append(pairing.Suggests,
				"Events may be out of order; try parse --sort")
		}
	}
	if d.UnmatchedStarts > 0 {
		pairing.Details = append(pairing.Details,
			fmt.Sprintf("Unmatched starts: %d (no stop before end of file)", d.UnmatchedStarts))
		for i, p := range a.PendingStarts() {
			if i == maxPendingDetails {
				pairing.Details = append(pairing.Details, "  ...")
				break
			}
			pairing.Details = append(pairing.Details,
				fmt.Sprintf("  %s started %s (line %d)", p.TurbineID, parser.FormatTimestamp(p.StartTime), p.LineNum))
		}
	}
	results = append(results, pairing)
	return results
}

func checkTimestamps(cfg *config.Config, d analyzer.Diagnostics) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Timestamps",
	}

	if d.MalformedLines == 0 {
		result.Status = "ok"
		result.Message = "All matched lines have valid timestamps"
		return result
	}

	result.Message = fmt.Sprintf("%d matched lines have unparseable timestamps", d.MalformedLines)
	if cfg.SkipMalformed {
		result.Status = "warning"
		result.Details = []string{"skip_malformed is set; these lines will be skipped"}
		return result
	}
	result.Status = "error"
	result.Suggests = []string{
		"A parse stops at the first such line",
		"Use parse --skip-malformed or set skip_malformed: true to skip them",
	}
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== turbinelog Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before parsing.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nThe file parses, but review the warnings above.")
	} else {
		fmt.Fprintln(w, "\nEvery event will be paired.")
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
