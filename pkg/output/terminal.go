package output

import (
	"os"

	"golang.org/x/term"
)

// TerminalWidth returns the column count of f when it is a terminal, or 0.
func TerminalWidth(f *os.File) int {
	fd := int(f.Fd()) // #nosec G115 -- file descriptors fit in int
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}
