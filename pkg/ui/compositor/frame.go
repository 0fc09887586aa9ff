package compositor

import (
	"slices"
	"strings"
)

// Frame is a sparse grid of rows keyed by row index. Row indices may be
// negative or beyond the viewport; the renderer ignores those rows.
//
// A Frame is owned by a single goroutine and is not safe for concurrent use.
type Frame struct {
	rows map[int]*Row
}

// NewFrame creates an empty frame.
func NewFrame() *Frame {
	return &Frame{rows: make(map[int]*Row)}
}

// Write splices text into row y starting at column x.
// Writing an empty string is a no-op.
func (f *Frame) Write(x, y int, text string) {
	if text == "" {
		return
	}
	row, ok := f.rows[y]
	if !ok {
		row = &Row{}
		f.rows[y] = row
	}
	row.Splice(x, text)
	if row.Len() == 0 && row.Tail() == "" {
		delete(f.rows, y)
	}
}

// Get returns the cell at (x, y), or a blank cell when out of bounds.
func (f *Frame) Get(x, y int) Cell {
	return f.rows[y].Cell(x)
}

// Row returns row y.
func (f *Frame) Row(y int) (*Row, bool) {
	row, ok := f.rows[y]
	return row, ok
}

// Rows returns the indices of every row present, in ascending order.
func (f *Frame) Rows() []int {
	keys := make([]int, 0, len(f.rows))
	for y := range f.rows {
		keys = append(keys, y)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of rows present.
func (f *Frame) Len() int {
	return len(f.rows)
}

// Clear drops every row. The frame itself is reused.
func (f *Frame) Clear() {
	clear(f.rows)
}

// Text returns the glyphs of row y with style sequences removed.
func (f *Frame) Text(y int) string {
	return f.rows[y].Text()
}

// Region returns a clipped view of the frame with its origin at (x, y).
func (f *Frame) Region(x, y, width, height int) *Region {
	return &Region{frame: f, x: x, y: y, width: max(width, 0), height: max(height, 0)}
}

// Canvas is the drawing surface handed to widgets. Writes are relative to
// the canvas origin and are clipped to its size.
type Canvas interface {
	Write(x, y int, text string)
	Size() (width, height int)
}

// Region is a rectangular Canvas over a Frame.
type Region struct {
	frame         *Frame
	x, y          int
	width, height int
}

var _ Canvas = (*Region)(nil)

// Write splices text at (x, y) relative to the region, clipping any cells
// that fall outside it.
func (r *Region) Write(x, y int, text string) {
	if text == "" || y < 0 || y >= r.height || x >= r.width {
		return
	}
	from := 0
	if x < 0 {
		from = -x
		x = 0
	}
	clipped := ClipText(text, from, from+r.width-x)
	r.frame.Write(r.x+x, r.y+y, clipped)
}

// Fill writes text repeated to cover every row of the region.
func (r *Region) Fill(glyph string) {
	if glyph == "" {
		return
	}
	line := strings.Repeat(glyph, r.width)
	for y := range r.height {
		r.Write(0, y, line)
	}
}

// Size returns the region dimensions.
func (r *Region) Size() (width, height int) {
	return r.width, r.height
}

// Origin returns the region's top-left corner in frame coordinates.
func (r *Region) Origin() (x, y int) {
	return r.x, r.y
}

// Sub returns a nested region, clipped to r.
func (r *Region) Sub(x, y, width, height int) *Region {
	if x < 0 {
		width += x
		x = 0
	}
	if y < 0 {
		height += y
		y = 0
	}
	width = min(width, r.width-x)
	height = min(height, r.height-y)
	return &Region{frame: r.frame, x: r.x + x, y: r.y + y, width: max(width, 0), height: max(height, 0)}
}

// ClipText keeps the cells of text in columns [from, to). Style sequences of
// the cells dropped on either side are kept so that the attribute state
// after the clipped text matches the unclipped one.
func ClipText(text string, from, to int) string {
	cells, trailing := Tokenize(text)
	if from <= 0 && to >= len(cells) {
		return text
	}
	from = clamp(from, 0, len(cells))
	to = clamp(to, from, len(cells))

	row := &Row{cells: cells[from:to]}
	if len(row.cells) > 0 {
		lead := prefixes(cells[:from])
		first := row.cells[0]
		if first.Continuation() {
			first.Glyph = " "
		}
		first.Prefix = lead + first.Prefix
		row.cells = append([]Cell{first}, row.cells[1:]...)
		if last := len(row.cells) - 1; to < len(cells) && cells[to].Continuation() {
			row.cells[last].Glyph = " "
		}
		row.tail = prefixes(cells[to:]) + trailing
		return row.String()
	}
	return prefixes(cells) + trailing
}
