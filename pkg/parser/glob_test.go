package parser

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExpandLogPaths_SingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt")
	file := filepath.Join(dir, "a.txt")

	result, err := ExpandLogPaths([]string{file}, DefaultLogExtensions)
	if err != nil {
		t.Fatalf("ExpandLogPaths() error = %v", err)
	}
	if len(result) != 1 || result[0] != file {
		t.Errorf("ExpandLogPaths() = %v, want [%s]", result, file)
	}
}

func TestExpandLogPaths_GlobPattern(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt", "b.txt", "c.csv")

	result, err := ExpandLogPaths([]string{filepath.Join(dir, "*.txt")}, DefaultLogExtensions)
	if err != nil {
		t.Fatalf("ExpandLogPaths() error = %v", err)
	}
	if len(result) != 2 {
		t.Errorf("ExpandLogPaths() returned %d files, want 2", len(result))
	}
}

func TestExpandLogPaths_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.log", "a.TXT", "notes.csv")
	if err := os.Mkdir(filepath.Join(dir, "nested.txt"), 0755); err != nil {
		t.Fatal(err)
	}

	result, err := ExpandLogPaths([]string{dir}, DefaultLogExtensions)
	if err != nil {
		t.Fatalf("ExpandLogPaths() error = %v", err)
	}
	want := []string{filepath.Join(dir, "a.TXT"), filepath.Join(dir, "b.log")}
	if len(result) != len(want) {
		t.Fatalf("ExpandLogPaths() = %v, want %v", result, want)
	}
	for i := range want {
		if result[i] != want[i] {
			t.Errorf("result[%d] = %s, want %s", i, result[i], want[i])
		}
	}
}

func TestExpandLogPaths_NoMatchKeepsLiteral(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "missing.txt")

	result, err := ExpandLogPaths([]string{pattern}, DefaultLogExtensions)
	if err != nil {
		t.Fatalf("ExpandLogPaths() error = %v", err)
	}
	if len(result) != 1 || result[0] != pattern {
		t.Errorf("ExpandLogPaths() = %v, want [%s]", result, pattern)
	}
}

func TestExpandLogPaths_Deduplication(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt")
	file := filepath.Join(dir, "a.txt")

	result, err := ExpandLogPaths([]string{file, file, filepath.Join(dir, "*.txt"), dir}, DefaultLogExtensions)
	if err != nil {
		t.Fatalf("ExpandLogPaths() error = %v", err)
	}
	if len(result) != 1 {
		t.Errorf("ExpandLogPaths() returned %d files, want 1 (deduplicated)", len(result))
	}
}

func TestExpandLogPaths_InvalidPattern(t *testing.T) {
	_, err := ExpandLogPaths([]string{"[invalid"}, DefaultLogExtensions)
	if err == nil {
		t.Error("ExpandLogPaths() expected error for invalid pattern")
	}
}

func TestExpandLogPaths_Sorted(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "c.txt", "a.txt", "b.txt")

	result, err := ExpandLogPaths([]string{filepath.Join(dir, "*.txt")}, DefaultLogExtensions)
	if err != nil {
		t.Fatalf("ExpandLogPaths() error = %v", err)
	}
	for i := 1; i < len(result); i++ {
		if result[i-1] > result[i] {
			t.Errorf("ExpandLogPaths() result not sorted: %v", result)
			break
		}
	}
}

func TestExpandLogPaths_EmptyInput(t *testing.T) {
	result, err := ExpandLogPaths(nil, DefaultLogExtensions)
	if err != nil {
		t.Fatalf("ExpandLogPaths() error = %v", err)
	}
	if len(result) != 0 {
		t.Errorf("ExpandLogPaths(nil) = %v, want empty", result)
	}
}
