package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
)

// DefaultTermWidth is the fallback terminal width when detection fails.
const DefaultTermWidth = 120

// DisplayContext holds display parameters for one output stream.
type DisplayContext struct {
	TermWidth int  // detected or fallback terminal width
	IsTTY     bool // whether the stream is a terminal
}

// NewDisplayContext inspects w. Streams that are not terminal files get
// the default width.
func NewDisplayContext(w io.Writer) *DisplayContext {
	f, ok := w.(*os.File)
	if !ok {
		return &DisplayContext{TermWidth: DefaultTermWidth}
	}
	fd := f.Fd()
	isTTY := term.IsTerminal(fd)

	width := DefaultTermWidth
	if isTTY {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}
	return &DisplayContext{TermWidth: width, IsTTY: isTTY}
}

// NewDisplayContextWithWidth creates a DisplayContext with a fixed width (for testing).
func NewDisplayContextWithWidth(width int) *DisplayContext {
	return &DisplayContext{TermWidth: width, IsTTY: true}
}

// ColorEnabled reports whether styled output should be written to w:
// w must be a terminal and NO_COLOR unset.
func ColorEnabled(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
