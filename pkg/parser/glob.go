package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultLogExtensions are the file extensions picked up when a directory is
// given as a log source.
var DefaultLogExtensions = []string{".txt", ".log"}

// ExpandLogPaths turns file paths, glob patterns and directories into a
// deduplicated, sorted list of log files. A directory contributes its
// regular files whose extension is in exts (non-recursive). Patterns that
// match nothing are returned as-is so the caller reports a readable
// file-not-found error later.
func ExpandLogPaths(patterns []string, exts []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}

	for _, pattern := range patterns {
		if info, err := os.Stat(pattern); err == nil && info.IsDir() {
			files, err := logFilesIn(pattern, exts)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			add(pattern)
			continue
		}
		for _, match := range matches {
			add(match)
		}
	}

	sort.Strings(result)
	return result, nil
}

func logFilesIn(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %w", ErrFileNotReadable, dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	return files, nil
}
