package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windops/turbinelog/pkg/analyzer"
)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05.000000", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleIntervals() []analyzer.Interval {
	return []analyzer.Interval{
		{
			Start:           ts("2024-05-01 10:00:00.000000"),
			Stop:            ts("2024-05-01 10:00:05.500000"),
			DurationSeconds: 5.5,
			TurbineID:       "12-A3",
		},
		{
			Start:           ts("2024-05-01 10:00:01.000000"),
			Stop:            ts("2024-05-01 10:00:01.000001"),
			DurationSeconds: 1e-06,
			TurbineID:       "07-B1",
		},
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{5, "5.0"},
		{5.5, "5.5"},
		{0.1, "0.1"},
		{1e-06, "1e-06"},
		{0.0001, "0.0001"},
		{0.00005, "5e-05"},
		{86400, "86400.0"},
		{3600.123456, "3600.123456"},
		{1e16, "1e+16"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSeconds(tt.in))
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleIntervals()))

	want := "Heure de début;Heure de fin;Intervalle (secondes);ID de la turbine\r\n" +
		"2024-05-01 10:00:00.000000;2024-05-01 10:00:05.500000;5.5;12-A3\r\n" +
		"2024-05-01 10:00:01.000000;2024-05-01 10:00:01.000001;1e-06;07-B1\r\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "Heure de début;Heure de fin;Intervalle (secondes);ID de la turbine\r\n", buf.String())
}

func TestExportCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	want := sampleIntervals()

	require.NoError(t, ExportCSV(path, want))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := ReadCSV(f)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Start.Equal(got[i].Start), "start %d", i)
		assert.True(t, want[i].Stop.Equal(got[i].Stop), "stop %d", i)
		assert.Equal(t, want[i].DurationSeconds, got[i].DurationSeconds)
		assert.Equal(t, want[i].TurbineID, got[i].TurbineID)
	}
}

func TestExportCSV_Truncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("stale\n", 100)), 0o600))

	require.NoError(t, ExportCSV(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}

func TestExportCSV_Unwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.csv")

	err := ExportCSV(path, sampleIntervals())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExportWrite))
}

func TestReadCSV_BOM(t *testing.T) {
	input := "\ufeffHeure de début;Heure de fin;Intervalle (secondes);ID de la turbine\n" +
		"2024-05-01 10:00:00.000000;2024-05-01 10:00:05.500000;5.5;12-A3\n"

	got, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "12-A3", got[0].TurbineID)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"wrong header", "a;b;c;d\n"},
		{"short row", strings.Join(CSVHeader, ";") + "\n2024-05-01 10:00:00.000000;x\n"},
		{"bad timestamp", strings.Join(CSVHeader, ";") + "\nnope;2024-05-01 10:00:00.000000;1.0;12-A3\n"},
		{"bad duration", strings.Join(CSVHeader, ";") +
			"\n2024-05-01 10:00:00.000000;2024-05-01 10:00:01.000000;one;12-A3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}
