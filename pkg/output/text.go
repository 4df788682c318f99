package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/windops/turbinelog/pkg/analyzer"
	"github.com/windops/turbinelog/pkg/parser"
)

// compactHeader replaces CSVHeader when the full table is wider than the
// terminal.
var compactHeader = []string{"Début", "Fin", "Secondes", "Turbine"}

const columnGap = "  "

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "turbinelog: %s intervals across %s turbines, %s dropped events\n",
		humanize.Comma(int64(report.Summary.Intervals)),
		humanize.Comma(int64(report.Summary.Turbines)),
		humanize.Comma(int64(report.Summary.Diagnostics.Dropped())))
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== turbinelog Interval Report ===")
	fmt.Fprintln(w)

	if len(report.Intervals) == 0 {
		fmt.Fprintln(w, "No intervals found")
		fmt.Fprintln(w)
	} else {
		f.formatTable(report.Intervals, w)
		fmt.Fprintln(w)
	}

	if f.opts.Verbose {
		f.formatTurbines(report.Turbines, w)
		f.formatFiles(report.Files, w)
	}

	d := report.Summary.Diagnostics
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %s intervals, %s turbines, %s files, %s total\n",
		humanize.Comma(int64(report.Summary.Intervals)),
		humanize.Comma(int64(report.Summary.Turbines)),
		humanize.Comma(int64(report.Summary.Files)),
		formatTotal(report.Summary.TotalSeconds))

	if d.HasDrops() {
		fmt.Fprintf(w, "Dropped: %s events (%s)\n",
			humanize.Comma(int64(d.Dropped())), dropBreakdown(d))
	}
	if d.PartialWindow {
		fmt.Fprintln(w, "Warning: only one time bound given, window ignored")
	}

	if f.opts.Verbose {
		fmt.Fprintf(w, "Lines read: %s\n", humanize.Comma(int64(d.LinesRead)))
		fmt.Fprintf(w, "Session: %s\n", report.Metadata.SessionID)
	}

	return nil
}

func (f *TextFormatter) formatTable(intervals []analyzer.Interval, w io.Writer) {
	rows := make([][]string, 0, len(intervals))
	for _, iv := range intervals {
		rows = append(rows, []string{
			parser.FormatTimestamp(iv.Start),
			parser.FormatTimestamp(iv.Stop),
			FormatSeconds(iv.DurationSeconds),
			iv.TurbineID,
		})
	}

	header := CSVHeader
	widths := columnWidths(header, rows)
	if f.opts.Width > 0 && tableWidth(widths) > f.opts.Width {
		header = compactHeader
		widths = columnWidths(header, rows)
	}

	writeRow(w, header, widths)
	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}
	writeRow(w, rule, widths)
	for _, row := range rows {
		writeRow(w, row, widths)
	}
}

func (f *TextFormatter) formatTurbines(turbines []TurbineSummary, w io.Writer) {
	if len(turbines) == 0 {
		return
	}
	fmt.Fprintln(w, "Per turbine:")
	for _, t := range turbines {
		fmt.Fprintf(w, "  %s: %s intervals, %s total, longest %ss\n",
			t.TurbineID,
			humanize.Comma(int64(t.Intervals)),
			formatTotal(t.TotalSeconds),
			FormatSeconds(t.MaxSeconds))
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatFiles(files []FileSummary, w io.Writer) {
	if len(files) == 0 {
		return
	}
	fmt.Fprintln(w, "Per file:")
	for _, file := range files {
		fmt.Fprintf(w, "  %s [%s]: %s intervals from %s lines",
			file.Source, file.Family,
			humanize.Comma(int64(file.Intervals)),
			humanize.Comma(int64(file.Diagnostics.LinesRead)))
		if file.Diagnostics.HasDrops() {
			fmt.Fprintf(w, ", dropped %s (%s)",
				humanize.Comma(int64(file.Diagnostics.Dropped())),
				dropBreakdown(file.Diagnostics))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}

func dropBreakdown(d analyzer.Diagnostics) string {
	var parts []string
	add := func(n int, label string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", humanize.Comma(int64(n)), label))
		}
	}
	add(d.FilteredOut, "outside window")
	add(d.MalformedLines, "malformed")
	add(d.OverwrittenStarts, "overwritten starts")
	add(d.OrphanStops, "orphan stops")
	add(d.UnmatchedStarts, "unmatched starts")
	add(d.NegativeDurations, "negative durations")
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// formatTotal renders a seconds total with thousands separators.
func formatTotal(seconds float64) string {
	return humanize.CommafWithDigits(seconds, 3) + "s"
}

func columnWidths(header []string, rows [][]string) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := runewidth.StringWidth(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}
	return widths
}

func tableWidth(widths []int) int {
	total := len(columnGap) * (len(widths) - 1)
	for _, n := range widths {
		total += n
	}
	return total
}

func writeRow(w io.Writer, cells []string, widths []int) {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		if i == len(cells)-1 {
			padded[i] = cell
			continue
		}
		padded[i] = runewidth.FillRight(cell, widths[i])
	}
	fmt.Fprintln(w, strings.Join(padded, columnGap))
}
