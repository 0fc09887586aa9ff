// Package compositor provides a flicker-free terminal rendering system.
// Content is written as ANSI-styled strings into sparse frames of cells,
// and only the rows that changed since the last frame are emitted.
package compositor

// Cell represents a single column on screen: one glyph plus the control
// sequences that must be emitted before it is painted.
//
// A cell always occupies exactly one terminal column, however many
// sequences its prefix carries. The one exception is the continuation
// half of a double-width glyph, which has an empty Glyph and renders as
// nothing so that the row's cell count still equals its column count.
type Cell struct {
	Prefix string
	Glyph  string
}

// BlankCell returns an unstyled space.
func BlankCell() Cell {
	return Cell{Glyph: " "}
}

// NewCell creates a cell from a glyph and its style prefix.
func NewCell(glyph, prefix string) Cell {
	return Cell{Prefix: prefix, Glyph: glyph}
}

// Empty returns true if the cell is an unstyled space.
func (c Cell) Empty() bool {
	return c.Prefix == "" && c.Glyph == " "
}

// Continuation reports whether the cell is the trailing half of a wide glyph.
func (c Cell) Continuation() bool {
	return c.Glyph == ""
}

// String returns the bytes emitted to paint the cell.
func (c Cell) String() string {
	return c.Prefix + c.Glyph
}

// Equal compares two cells for equality.
func (c Cell) Equal(other Cell) bool {
	return c.Prefix == other.Prefix && c.Glyph == other.Glyph
}
