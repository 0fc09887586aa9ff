// Package vt implements the terminal emulator occupant: a private cell
// screen, a VT100 subset interpreter that drives it, and a child process
// attached through a pseudo-terminal.
package vt

import (
	"strings"

	"github.com/odvcencio/tilewm/pkg/ui/compositor"
)

const tabWidth = 8

// Screen is the emulator's own cell grid.
//
// The cursor column may equal the width: the next printed glyph then wraps
// to the start of the following line first. A style sequence waits in the
// pending prefix until the next glyph is printed and is attached to it.
type Screen struct {
	width, height int
	lines         [][]compositor.Cell
	x, y          int
	pending       string
}

// NewScreen creates a blank width x height screen.
func NewScreen(width, height int) *Screen {
	width, height = max(width, 1), max(height, 1)
	s := &Screen{width: width, height: height}
	s.lines = make([][]compositor.Cell, height)
	for y := range s.lines {
		s.lines[y] = blankLine(width)
	}
	return s
}

func blankLine(width int) []compositor.Cell {
	line := make([]compositor.Cell, width)
	for i := range line {
		line[i] = compositor.BlankCell()
	}
	return line
}

// Size returns the screen dimensions.
func (s *Screen) Size() (width, height int) {
	return s.width, s.height
}

// Cursor returns the cursor position.
func (s *Screen) Cursor() (x, y int) {
	return s.x, s.y
}

// Pending returns the style prefix waiting for the next glyph.
func (s *Screen) Pending() string {
	return s.pending
}

// SetCursor moves the cursor to (x, y), clamped to the screen.
func (s *Screen) SetCursor(x, y int) {
	s.x = clamp(x, 0, s.width-1)
	s.y = clamp(y, 0, s.height-1)
}

// MoveCursor moves the cursor relative to its position, clamped to the
// screen.
func (s *Screen) MoveCursor(dx, dy int) {
	s.SetCursor(min(s.x, s.width-1)+dx, s.y+dy)
}

// AddStyle queues a style sequence for the next glyph.
func (s *Screen) AddStyle(seq string) {
	s.pending += seq
}

// Put prints a glyph of the given column width at the cursor.
func (s *Screen) Put(glyph string, width int) {
	if width > s.width {
		glyph, width = " ", 1
	}
	if s.x+width > s.width {
		s.Newline()
	}
	line := s.lines[s.y]
	s.unpair(line, s.x)
	line[s.x] = compositor.NewCell(glyph, s.pending)
	s.pending = ""
	if width == 2 {
		s.unpair(line, s.x+1)
		line[s.x+1] = compositor.NewCell("", "")
	}
	s.x += width
}

// Combine appends a zero-width mark to the glyph before the cursor.
func (s *Screen) Combine(mark string) {
	x := min(s.x, s.width) - 1
	if x < 0 {
		return
	}
	line := s.lines[s.y]
	if line[x].Continuation() && x > 0 {
		x--
	}
	line[x].Glyph += mark
}

// unpair blanks the other half of a wide glyph about to lose one half.
func (s *Screen) unpair(line []compositor.Cell, x int) {
	if line[x].Continuation() && x > 0 {
		line[x-1] = compositor.NewCell(" ", line[x-1].Prefix)
	}
	if x+1 < len(line) && line[x+1].Continuation() {
		line[x+1] = compositor.BlankCell()
	}
}

// Newline moves to the start of the next line, scrolling at the bottom.
func (s *Screen) Newline() {
	s.x = 0
	s.LineFeed()
}

// LineFeed moves down one line, scrolling at the bottom.
func (s *Screen) LineFeed() {
	s.y++
	if s.y >= s.height {
		s.scroll()
		s.y = s.height - 1
	}
}

func (s *Screen) scroll() {
	copy(s.lines, s.lines[1:])
	s.lines[s.height-1] = blankLine(s.width)
}

// CarriageReturn moves to the start of the line.
func (s *Screen) CarriageReturn() {
	s.x = 0
}

// Backspace moves one column left.
func (s *Screen) Backspace() {
	s.x = max(min(s.x, s.width-1)-1, 0)
}

// Tab moves to the next tab stop.
func (s *Screen) Tab() {
	s.x = min((s.x/tabWidth+1)*tabWidth, s.width-1)
}

// EraseDisplay clears part of the screen: 0 from the cursor to the end,
// 1 from the start to the cursor, 2 and 3 everything. The cursor stays.
func (s *Screen) EraseDisplay(mode int) {
	switch mode {
	case 0:
		s.EraseLine(0)
		for y := s.y + 1; y < s.height; y++ {
			s.lines[y] = blankLine(s.width)
		}
	case 1:
		for y := 0; y < s.y; y++ {
			s.lines[y] = blankLine(s.width)
		}
		s.EraseLine(1)
	case 2, 3:
		for y := range s.lines {
			s.lines[y] = blankLine(s.width)
		}
	}
}

// EraseLine clears part of the cursor line: 0 from the cursor to the end,
// 1 from the start to the cursor, 2 the whole line.
func (s *Screen) EraseLine(mode int) {
	line := s.lines[s.y]
	x := min(s.x, s.width-1)
	from, to := 0, s.width
	switch mode {
	case 0:
		from = min(s.x, s.width)
	case 1:
		to = x + 1
	case 2:
	default:
		return
	}
	if from < to {
		s.unpair(line, from)
		s.unpair(line, to-1)
	}
	for i := from; i < to; i++ {
		line[i] = compositor.BlankCell()
	}
}

// Resize changes the screen dimensions. Lines are truncated or padded on
// the right and bottom, and the cursor is clamped into the new size.
func (s *Screen) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if width == s.width && height == s.height {
		return
	}
	lines := make([][]compositor.Cell, height)
	for y := range lines {
		if y >= len(s.lines) {
			lines[y] = blankLine(width)
			continue
		}
		old := s.lines[y]
		line := make([]compositor.Cell, width)
		n := copy(line, old)
		for i := n; i < width; i++ {
			line[i] = compositor.BlankCell()
		}
		// A wide glyph cut at the edge has lost its second half.
		if width < len(old) && old[width].Continuation() {
			line[width-1] = compositor.NewCell(" ", line[width-1].Prefix)
		}
		lines[y] = line
	}
	s.lines = lines
	s.width, s.height = width, height
	s.x = clamp(s.x, 0, width)
	s.y = clamp(s.y, 0, height-1)
}

// Cell returns the cell at (x, y), or a blank cell outside the screen.
func (s *Screen) Cell(x, y int) compositor.Cell {
	if y < 0 || y >= s.height || x < 0 || x >= s.width {
		return compositor.BlankCell()
	}
	return s.lines[y][x]
}

// Line returns line y with its style sequences and without trailing blank
// cells.
func (s *Screen) Line(y int) string {
	if y < 0 || y >= s.height {
		return ""
	}
	line := s.lines[y]
	end := len(line)
	for end > 0 && line[end-1].Empty() {
		end--
	}
	var sb strings.Builder
	for _, c := range line[:end] {
		sb.WriteString(c.String())
	}
	return sb.String()
}

// Text returns the glyphs of line y.
func (s *Screen) Text(y int) string {
	if y < 0 || y >= s.height {
		return ""
	}
	var sb strings.Builder
	for _, c := range s.lines[y] {
		sb.WriteString(c.Glyph)
	}
	return sb.String()
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
