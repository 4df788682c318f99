package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// LineSource provides an iterator over raw log lines.
// Implementations must be safe for sequential access (not concurrent).
type LineSource interface {
	// Next returns the next line. Returns io.EOF when no more lines are available.
	Next(ctx context.Context) (*LogLine, error)

	// Close releases any resources held by the source.
	Close() error
}

// FileSource implements LineSource for reading from log files, one file
// after another.
type FileSource struct {
	files []string

	currentFile   *os.File
	currentReader *lineReader
	currentSource string
	currentLine   int
	fileIndex     int
}

// NewFileSource creates a LineSource that reads from the given files in order.
func NewFileSource(files ...string) *FileSource {
	return &FileSource{
		files:     files,
		fileIndex: -1,
	}
}

// Next returns the next log line, including blank ones.
// Returns io.EOF when all files have been exhausted.
func (s *FileSource) Next(ctx context.Context) (*LogLine, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.currentReader == nil {
			if err := s.openNextFile(); err != nil {
				return nil, err
			}
		}

		content, err := s.currentReader.next()
		if err == nil {
			s.currentLine++
			return &LogLine{
				Content: content,
				Source:  s.currentSource,
				LineNum: s.currentLine,
			}, nil
		}
		if err != io.EOF {
			return nil, fmt.Errorf("%w: reading %s: %w", ErrFileNotReadable, s.currentSource, err)
		}

		// Current file exhausted, try next
		if err := s.closeCurrentFile(); err != nil {
			return nil, err
		}
	}
}

// Close releases resources.
func (s *FileSource) Close() error {
	return s.closeCurrentFile()
}

func (s *FileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", ErrFileNotReadable, path, err)
	}
	if info, err := f.Stat(); err == nil && info.IsDir() {
		_ = f.Close()
		return fmt.Errorf("%w: %s is a directory", ErrFileNotReadable, path)
	}

	s.currentFile = f
	s.currentReader = newLineReader(f)
	s.currentSource = path
	s.currentLine = 0

	return nil
}

func (s *FileSource) closeCurrentFile() error {
	if s.currentFile != nil {
		err := s.currentFile.Close()
		s.currentFile = nil
		s.currentReader = nil
		return err
	}
	s.currentReader = nil
	return nil
}

// lineReader splits a stream into lines of any length. The trailing "\n"
// and an optional "\r" before it are removed.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// next returns the next line, or io.EOF once the stream is exhausted. A
// final line without a newline is still returned.
func (lr *lineReader) next() (string, error) {
	line, err := lr.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// StringSource is a LineSource over in-memory text, used for tests and for
// callers that already hold the log contents.
type StringSource struct {
	name    string
	reader  *lineReader
	lineNum int
}

// NewStringSource creates a LineSource over r, labelling lines with name.
func NewStringSource(name string, r io.Reader) *StringSource {
	return &StringSource{name: name, reader: newLineReader(r)}
}

// Next returns the next line or io.EOF.
func (s *StringSource) Next(ctx context.Context) (*LogLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := s.reader.next()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrFileNotReadable, s.name, err)
	}
	s.lineNum++
	return &LogLine{
		Content: content,
		Source:  s.name,
		LineNum: s.lineNum,
	}, nil
}

// Close is a no-op.
func (s *StringSource) Close() error {
	return nil
}
