package compositor

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Control sequences written by the renderer and the tty backend.
const (
	ANSIEscape      = "\x1b["
	ANSIEraseLine   = "\x1b[K"
	ANSIClearScreen = "\x1b[2J"
	ANSICursorHome  = "\x1b[H"
	ANSIReset       = "\x1b[0m"
	ANSIReverse     = "\x1b[7m"
	ANSIReverseOff  = "\x1b[27m"

	// Entry point sequences. The renderer never emits these.
	ANSICursorHide = "\x1b[?25l"
	ANSICursorShow = "\x1b[?25h"
	ANSIAltScreen  = "\x1b[?1049h"
	ANSIMainScreen = "\x1b[?1049l"
	ANSIMouseOn    = "\x1b[?1000h\x1b[?1006h"
	ANSIMouseOff   = "\x1b[?1006l\x1b[?1000l"
)

// CursorTo moves the cursor to the 0-based cell (x, y).
func CursorTo(x, y int) string {
	return ANSIEscape + strconv.Itoa(y+1) + ";" + strconv.Itoa(x+1) + "H"
}

// Reverse wraps text in reverse video.
func Reverse(text string) string {
	return ANSIReverse + text + ANSIReverseOff
}

// Strip removes every escape sequence from s.
func Strip(s string) string {
	return ansi.Strip(s)
}

// VisibleWidth returns the number of columns s occupies, ignoring escape
// sequences.
func VisibleWidth(s string) int {
	return ansi.StringWidth(s)
}

// ANSIWriter accumulates renderer output. The embedded builder supplies
// WriteString, Len, Reset and String.
type ANSIWriter struct {
	strings.Builder
}

func NewANSIWriter() *ANSIWriter {
	return &ANSIWriter{}
}

// MoveToRow positions the cursor at the start of row y.
func (w *ANSIWriter) MoveToRow(y int) {
	w.WriteString(CursorTo(0, y))
}

// EraseLine clears from the cursor to the end of the line.
func (w *ANSIWriter) EraseLine() {
	w.WriteString(ANSIEraseLine)
}
