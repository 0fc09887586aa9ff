package compositor

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Tokenize splits text into cells. Escape sequences are attached as a prefix
// to the glyph that follows them. Sequences with no glyph after them are
// returned as trailing.
//
// C0 control characters are dropped since they would move the real cursor
// out from under the cell grid. Zero-width runes join the previous glyph and
// double-width runes are followed by a continuation cell.
func Tokenize(text string) (cells []Cell, trailing string) {
	var prefix strings.Builder
	for i := 0; i < len(text); {
		if text[i] == 0x1b {
			n := escapeLen(text[i:])
			prefix.WriteString(text[i : i+n])
			i += n
			continue
		}

		r, size := utf8.DecodeRuneInString(text[i:])
		glyph := text[i : i+size]
		i += size

		if r < 0x20 || r == 0x7f {
			continue
		}

		switch runewidth.RuneWidth(r) {
		case 0:
			if len(cells) > 0 {
				cells[len(cells)-1].Glyph += glyph
			}
		case 2:
			cells = append(cells, Cell{Prefix: prefix.String(), Glyph: glyph}, Cell{})
			prefix.Reset()
		default:
			cells = append(cells, Cell{Prefix: prefix.String(), Glyph: glyph})
			prefix.Reset()
		}
	}
	return cells, prefix.String()
}

// escapeLen returns the length of the escape sequence at the start of s.
// s[0] must be ESC. Unterminated sequences run to the end of s.
func escapeLen(s string) int {
	if len(s) < 2 {
		return len(s)
	}
	switch s[1] {
	case '[':
		j := 2
		for j < len(s) && s[j] >= 0x30 && s[j] <= 0x3f {
			j++
		}
		for j < len(s) && s[j] >= 0x20 && s[j] <= 0x2f {
			j++
		}
		if j < len(s) && s[j] >= 0x40 && s[j] <= 0x7e {
			j++
		}
		return j
	case ']', 'P', '_', '^':
		for j := 2; j < len(s); j++ {
			if s[j] == 0x07 {
				return j + 1
			}
			if s[j] == 0x1b && j+1 < len(s) && s[j+1] == '\\' {
				return j + 2
			}
		}
		return len(s)
	case '(', ')', '*', '+', '#':
		if len(s) < 3 {
			return len(s)
		}
		return 3
	default:
		return 2
	}
}

// Row is an ordered sequence of cells indexed by column.
type Row struct {
	cells []Cell
	// tail holds sequences written after the last glyph. They become the
	// prefix of whatever is appended next.
	tail string
}

// NewRow creates a row holding text.
func NewRow(text string) *Row {
	cells, trailing := Tokenize(text)
	return &Row{cells: cells, tail: trailing}
}

// BlankRow creates a row of n unstyled spaces.
func BlankRow(n int) *Row {
	r := &Row{}
	r.pad(n)
	return r
}

// Len returns the number of cells (columns) in the row.
func (r *Row) Len() int {
	if r == nil {
		return 0
	}
	return len(r.cells)
}

// Cell returns the cell at column x, or a blank cell when out of range.
func (r *Row) Cell(x int) Cell {
	if r == nil || x < 0 || x >= len(r.cells) {
		return BlankCell()
	}
	return r.cells[x]
}

// Tail returns the sequences trailing the last glyph.
func (r *Row) Tail() string {
	if r == nil {
		return ""
	}
	return r.tail
}

// Clone returns a deep copy of the row.
func (r *Row) Clone() *Row {
	if r == nil {
		return &Row{}
	}
	cells := make([]Cell, len(r.cells))
	copy(cells, r.cells)
	return &Row{cells: cells, tail: r.tail}
}

// Slice returns the cells in [from, to) as a new row. Bounds are clamped.
func (r *Row) Slice(from, to int) *Row {
	n := r.Len()
	from = clamp(from, 0, n)
	to = clamp(to, from, n)
	out := &Row{cells: make([]Cell, to-from)}
	copy(out.cells, r.cells[from:to])
	if to == n {
		out.tail = r.tail
	}
	return out
}

// Concat returns a new row with other's cells appended after r's.
func (r *Row) Concat(other *Row) *Row {
	out := r.Clone()
	if other == nil || (len(other.cells) == 0 && other.tail == "") {
		return out
	}
	cells := make([]Cell, len(other.cells))
	copy(cells, other.cells)
	if len(cells) > 0 {
		cells[0].Prefix = out.tail + cells[0].Prefix
		out.tail = other.tail
	} else {
		out.tail += other.tail
	}
	out.cells = append(out.cells, cells...)
	return out
}

// Splice writes text into the row starting at column x, replacing the cells
// it covers. The row is space-padded first when shorter than x. A negative x
// drops that many cells from the front of text; their prefixes carry over to
// the first cell that survives.
func (r *Row) Splice(x int, text string) {
	if text == "" {
		return
	}
	cells, trailing := Tokenize(text)

	if x < 0 {
		drop := -x
		x = 0
		if drop >= len(cells) {
			trailing = prefixes(cells) + trailing
			cells = nil
		} else {
			carry := prefixes(cells[:drop])
			cells = cells[drop:]
			cells[0].Prefix = carry + cells[0].Prefix
			if cells[0].Continuation() {
				cells[0].Glyph = " "
			}
		}
	}

	if len(r.cells) < x {
		r.pad(x - len(r.cells))
	}

	if x == len(r.cells) {
		if len(cells) == 0 {
			r.tail += trailing
			return
		}
		cells[0].Prefix = r.tail + cells[0].Prefix
		r.cells = append(r.cells, cells...)
		r.tail = trailing
		return
	}

	// Split a wide glyph whose continuation is about to be overwritten.
	if len(cells) > 0 && x > 0 && r.cells[x].Continuation() {
		r.cells[x-1].Glyph = " "
	}

	end := x + len(cells)
	var after []Cell
	if end < len(r.cells) {
		after = make([]Cell, len(r.cells)-end)
		copy(after, r.cells[end:])
		if after[0].Continuation() {
			after[0].Glyph = " "
		}
	}

	merged := make([]Cell, 0, x+len(cells)+len(after))
	merged = append(merged, r.cells[:x]...)
	merged = append(merged, cells...)
	merged = append(merged, after...)
	r.cells = merged

	if trailing == "" {
		return
	}
	if len(after) > 0 {
		r.cells[end].Prefix = trailing + r.cells[end].Prefix
	} else {
		r.tail = trailing + r.tail
	}
}

func (r *Row) pad(n int) {
	for i := 0; i < n; i++ {
		c := BlankCell()
		if i == 0 {
			c.Prefix = r.tail
			r.tail = ""
		}
		r.cells = append(r.cells, c)
	}
}

// String returns the row's bytes including every style sequence.
func (r *Row) String() string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	for _, c := range r.cells {
		sb.WriteString(c.Prefix)
		sb.WriteString(c.Glyph)
	}
	sb.WriteString(r.tail)
	return sb.String()
}

// Render returns the row truncated to width visible columns. Style
// sequences of the truncated cells are still emitted so that the terminal
// ends the row in the same attribute state as an untruncated write would.
func (r *Row) Render(width int) string {
	if r == nil {
		return ""
	}
	if width >= len(r.cells) {
		return r.String()
	}
	if width < 0 {
		width = 0
	}
	var sb strings.Builder
	for _, c := range r.cells[:width] {
		sb.WriteString(c.Prefix)
		sb.WriteString(c.Glyph)
	}
	// A wide glyph cut in half would spill past the edge.
	if width > 0 && r.cells[width].Continuation() {
		s := sb.String()
		last := r.cells[width-1]
		s = s[:len(s)-len(last.Glyph)] + " "
		sb.Reset()
		sb.WriteString(s)
	}
	sb.WriteString(prefixes(r.cells[width:]))
	sb.WriteString(r.tail)
	return sb.String()
}

// Text returns the row's glyphs without any style sequences.
func (r *Row) Text() string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	for _, c := range r.cells {
		sb.WriteString(c.Glyph)
	}
	return sb.String()
}

// Equal compares two rows cell by cell, including style sequences.
func (r *Row) Equal(other *Row) bool {
	if r.Len() != other.Len() || r.Tail() != other.Tail() {
		return false
	}
	for i := range r.Len() {
		if !r.cells[i].Equal(other.cells[i]) {
			return false
		}
	}
	return true
}

func prefixes(cells []Cell) string {
	var sb strings.Builder
	for _, c := range cells {
		sb.WriteString(c.Prefix)
	}
	return sb.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
