package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/windops/turbinelog/pkg/detector"
)

func TestDetectOptions_Defaults(t *testing.T) {
	cmd := NewDetectCommand(&GlobalOptions{})

	if got := cmd.Flags().Lookup("sample").DefValue; got != "1000" {
		t.Errorf("Expected default sample 1000, got %s", got)
	}
	if got := cmd.Flags().Lookup("output").DefValue; got != "text" {
		t.Errorf("Expected default output text, got %s", got)
	}
}

func TestOutputDetectText_NoMatch(t *testing.T) {
	var buf bytes.Buffer
	result := &detector.DetectionResult{SampledLines: 3}

	if err := outputDetectText(&buf, result, "app.log", &DetectOptions{}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "No event family detected") {
		t.Errorf("Expected no-match message, got:\n%s", out)
	}
}

func TestOutputDetectText_ShowAll(t *testing.T) {
	var buf bytes.Buffer
	result := &detector.DetectionResult{
		SampledLines: 10,
		MatchedLines: 6,
		MixedNote:    "Lines from 2 families were found.",
		Matches: []detector.FamilyMatch{
			{Family: "regulation", Confidence: 0.6, StartCount: 3, StopCount: 3, ParsedTime: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
			{Family: "startle", Confidence: 0.2, StartCount: 1, StopCount: 1},
		},
	}

	if err := outputDetectText(&buf, result, "app.log", &DetectOptions{ShowAll: true}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Detected Family: regulation",
		"Confidence: 60.0% (6/10 lines matched)",
		"Parsed as: 2024-05-01 10:00:00.000000",
		"Note: Lines from 2 families",
		"turbinelog parse regulation app.log",
		"2. startle (20.0% confidence",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestOutputDetectJSON(t *testing.T) {
	var buf bytes.Buffer
	result := &detector.DetectionResult{
		SampledLines: 4,
		MatchedLines: 4,
		Matches: []detector.FamilyMatch{
			{Family: "startle", Confidence: 1, StartCount: 2, StopCount: 2, Turbines: []string{"12-A3"}},
			{Family: "regulation", Confidence: 0.25, StartCount: 1},
		},
	}

	if err := outputDetectJSON(&buf, result, "app.log", &DetectOptions{}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var out JSONOutput
	if err := sonic.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if out.File != "app.log" {
		t.Errorf("Unexpected file: %s", out.File)
	}
	if len(out.Matches) != 1 {
		t.Fatalf("Expected only the best match, got %d", len(out.Matches))
	}
	if out.Matches[0].Family != "startle" || out.Matches[0].StopCount != 2 {
		t.Errorf("Unexpected match: %+v", out.Matches[0])
	}
}

func TestRunDetect_MissingFile(t *testing.T) {
	_, _, err := execute(NewDetectCommand(&GlobalOptions{}), "/nonexistent/file.log")
	if err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestRunDetect_Success(t *testing.T) {
	logPath := startleLog(t, t.TempDir())

	stdout, _, err := execute(NewDetectCommand(&GlobalOptions{}), logPath)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Detected Family: startle") {
		t.Errorf("Expected startle, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Turbines: 2") {
		t.Errorf("Expected 2 turbines, got:\n%s", stdout)
	}
}

func TestRunDetect_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	logPath := writeFile(t, dir, "reg.txt",
		pauseLine("2024-05-01 10:00:00.000000", "12-A3"),
		runLine("2024-05-01 10:00:05.000000", "12-A3"),
	)

	stdout, _, err := execute(NewDetectCommand(&GlobalOptions{}), "-o", "json", logPath)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var out JSONOutput
	if err := sonic.UnmarshalString(stdout, &out); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(out.Matches) != 1 || out.Matches[0].Family != "regulation" {
		t.Errorf("Expected regulation, got %+v", out.Matches)
	}
}

func TestRunDetect_UnknownFormat(t *testing.T) {
	logPath := startleLog(t, t.TempDir())

	_, _, err := execute(NewDetectCommand(&GlobalOptions{}), "-o", "yaml", logPath)
	if err == nil {
		t.Error("Expected error for unknown output format")
	}
}
