package layout

// Rect is a positioned rectangle in screen cells.
type Rect struct {
	X, Y, Width, Height int
}

// ZeroRect is the zero value rect.
var ZeroRect = Rect{}

// Empty reports whether the rect covers no cells.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains returns true if the point is inside the rect.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Intersection returns the overlapping area of two rects.
func (r Rect) Intersection(other Rect) Rect {
	x := max(r.X, other.X)
	y := max(r.Y, other.Y)
	x2 := min(r.X+r.Width, other.X+other.Width)
	y2 := min(r.Y+r.Height, other.Y+other.Height)
	if x2 <= x || y2 <= y {
		return ZeroRect
	}
	return Rect{X: x, Y: y, Width: x2 - x, Height: y2 - y}
}

// Inset returns a rect shrunk by n cells on every side.
func (r Rect) Inset(n int) Rect {
	return Rect{
		X:      r.X + n,
		Y:      r.Y + n,
		Width:  max(0, r.Width-2*n),
		Height: max(0, r.Height-2*n),
	}
}

// Pos addresses a tile by row-group and column index.
type Pos struct {
	Row, Col int
}

// Point is a screen cell.
type Point struct {
	X, Y int
}
