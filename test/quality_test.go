package test

import (
	"bufio"
	"bytes"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// getProjectRoot returns the project root directory based on this test file's location.
func getProjectRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Dir(filepath.Dir(filename))
}

// walkGoFiles calls fn for every .go file in the project, skipping hidden,
// vendor and underscore-prefixed directories the go tool also ignores.
func walkGoFiles(t *testing.T, fn func(path string)) {
	t.Helper()
	err := filepath.Walk(getProjectRoot(), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if path != getProjectRoot() && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
				name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".go") {
			fn(path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk directory: %v", err)
	}
}

// TestSourcesParse ensures every Go file is syntactically valid, including
// the scanner-level rules (such as a byte-order mark past the start of a
// file) that only surface when a package is built.
func TestSourcesParse(t *testing.T) {
	bom := []byte{0xEF, 0xBB, 0xBF}
	fset := token.NewFileSet()
	count := 0

	walkGoFiles(t, func(path string) {
		count++
		src, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", path, err)
		}
		if i := bytes.Index(src, bom); i > 0 {
			t.Errorf("%s: byte-order mark at offset %d; write it as \\ufeff", path, i)
		}
		if _, err := parser.ParseFile(fset, path, src, parser.AllErrors); err != nil {
			t.Errorf("%s does not parse: %v", path, err)
		}
	})

	if count == 0 {
		t.Fatal("No Go files found - something is wrong with file discovery")
	}
}

// TestNoSkippedTests ensures no test files contain t.Skip() calls.
// Skipped tests hide failures - tests should either pass or fail, never skip.
func TestNoSkippedTests(t *testing.T) {
	forbiddenPatterns := []string{
		"t.Skip(",
		"t.Skipf(",
		"t.SkipNow(",
		"testing.Short()",
	}

	var testFiles []string
	walkGoFiles(t, func(path string) {
		if strings.HasSuffix(path, "_test.go") && filepath.Base(path) != "quality_test.go" {
			testFiles = append(testFiles, path)
		}
	})

	var violations []string
	for _, testFile := range testFiles {
		f, err := os.Open(testFile)
		if err != nil {
			t.Fatalf("Failed to open %s: %v", testFile, err)
		}

		scanner := bufio.NewScanner(f)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()

			if strings.HasPrefix(strings.TrimSpace(line), "//") {
				continue
			}

			for _, pattern := range forbiddenPatterns {
				if strings.Contains(line, pattern) {
					violations = append(violations,
						testFile+":"+strconv.Itoa(lineNum)+": contains forbidden pattern '"+pattern+"'")
				}
			}
		}
		f.Close()

		if err := scanner.Err(); err != nil {
			t.Fatalf("Error scanning %s: %v", testFile, err)
		}
	}

	if len(violations) > 0 {
		t.Errorf("Found %d test skip violation(s):\n", len(violations))
		for _, v := range violations {
			t.Errorf("  %s", v)
		}
		t.Error("\nTests should not be skipped. Either:")
		t.Error("  1. Fix the issue causing the skip")
		t.Error("  2. Use t.Fatalf() if a required resource is missing")
		t.Error("  3. Remove the test if it's no longer relevant")
	}
}

// TestEveryPackageHasTests ensures each library package under pkg/ and
// internal/ ships its own tests.
func TestEveryPackageHasTests(t *testing.T) {
	sources := make(map[string]bool)
	tested := make(map[string]bool)

	root := getProjectRoot()
	walkGoFiles(t, func(path string) {
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			t.Fatalf("Failed to relativize %s: %v", path, err)
		}
		if !strings.HasPrefix(rel, "pkg") && !strings.HasPrefix(rel, "internal") {
			return
		}
		if strings.HasSuffix(path, "_test.go") {
			tested[rel] = true
		} else {
			sources[rel] = true
		}
	})

	if len(sources) == 0 {
		t.Fatal("No packages found - something is wrong with package discovery")
	}

	var missing []string
	for dir := range sources {
		if !tested[dir] {
			missing = append(missing, dir)
		}
	}
	sort.Strings(missing)
	for _, dir := range missing {
		t.Errorf("Package %s has no tests", dir)
	}
}

// TestNoEmptyTests ensures test files declare at least one test function.
func TestNoEmptyTests(t *testing.T) {
	var testFiles []string
	walkGoFiles(t, func(path string) {
		if strings.HasSuffix(path, "_test.go") {
			testFiles = append(testFiles, path)
		}
	})

	if len(testFiles) == 0 {
		t.Fatal("No test files found - something is wrong with test discovery")
	}

	for _, testFile := range testFiles {
		data, err := os.ReadFile(testFile)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", testFile, err)
		}
		if !strings.Contains(string(data), "func Test") {
			t.Errorf("%s declares no test functions", testFile)
		}
	}

	t.Logf("Found %d test files", len(testFiles))
}
