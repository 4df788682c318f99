package output

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/windops/turbinelog/pkg/analyzer"
	"github.com/windops/turbinelog/pkg/parser"
)

// ErrExportWrite is returned when the CSV export target cannot be written.
var ErrExportWrite = errors.New("cannot write export file")

// CSV layout. The semicolon keeps the file readable in decimal-comma locales.
const CSVDelimiter = ';'

// CSVHeader is the fixed header row of an interval export.
var CSVHeader = []string{
	"Heure de début",
	"Heure de fin",
	"Intervalle (secondes)",
	"ID de la turbine",
}

const utf8BOM = "\ufeff"

// WriteCSV writes the header and one row per interval to w.
func WriteCSV(w io.Writer, intervals []analyzer.Interval) error {
	cw := csv.NewWriter(w)
	cw.Comma = CSVDelimiter
	cw.UseCRLF = true

	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, iv := range intervals {
		record := []string{
			parser.FormatTimestamp(iv.Start),
			parser.FormatTimestamp(iv.Stop),
			FormatSeconds(iv.DurationSeconds),
			iv.TurbineID,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV writes intervals to path, creating or truncating it.
// Every failure wraps ErrExportWrite.
func ExportCSV(path string, intervals []analyzer.Interval) (err error) {
	f, err := os.Create(path) // #nosec G304 -- user-chosen export path
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExportWrite, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: closing %s: %w", ErrExportWrite, path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := WriteCSV(bw, intervals); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrExportWrite, path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrExportWrite, path, err)
	}
	return nil
}

// ReadCSV reads an interval export produced by WriteCSV. A leading UTF-8
// byte order mark is tolerated.
func ReadCSV(r io.Reader) ([]analyzer.Interval, error) {
	br := bufio.NewReader(r)
	if peek, err := br.Peek(len(utf8BOM)); err == nil && string(peek) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = CSVDelimiter
	cr.FieldsPerRecord = len(CSVHeader)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty CSV: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i, name := range CSVHeader {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected header column %d: %q, want %q", i+1, header[i], name)
		}
	}

	var intervals []analyzer.Interval
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		line, _ := cr.FieldPos(0)
		iv, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		intervals = append(intervals, iv)
	}
	return intervals, nil
}

func parseRecord(record []string) (analyzer.Interval, error) {
	start, err := parser.ParseTimestamp(record[0])
	if err != nil {
		return analyzer.Interval{}, fmt.Errorf("start: %w", err)
	}
	stop, err := parser.ParseTimestamp(record[1])
	if err != nil {
		return analyzer.Interval{}, fmt.Errorf("stop: %w", err)
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return analyzer.Interval{}, fmt.Errorf("duration: %w", err)
	}
	return analyzer.Interval{
		Start:           start,
		Stop:            stop,
		DurationSeconds: secs,
		TurbineID:       record[3],
	}, nil
}

// FormatSeconds renders a duration the way a float prints by default:
// the shortest round-trip digits, at least one fractional digit, and
// exponent notation below 1e-4 or from 1e16 up (5.5, 5.0, 1e-06).
func FormatSeconds(v float64) string {
	if v == 0 {
		return "0.0"
	}
	if abs := math.Abs(v); abs < 1e-4 || abs >= 1e16 {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// CSVFormatter renders the report's intervals as export CSV.
type CSVFormatter struct{}

// NewCSVFormatter creates a CSV formatter.
func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Name returns the format name.
func (f *CSVFormatter) Name() string {
	return "csv"
}

// Format writes the report's intervals as CSV.
func (f *CSVFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	return WriteCSV(w, report.Intervals)
}
