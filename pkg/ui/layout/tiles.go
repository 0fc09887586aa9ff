package layout

// Tile is the resolved geometry of one tile.
type Tile[T comparable] struct {
	Pos Pos
	// Frame spans the tile's separators on all four sides.
	Frame Rect
	// Interior is the area inside the separators, clipped to the viewport.
	Interior Rect
	Occupant T
	Focused  bool
}

// Tiles resolves every tile against the current viewport, row by row.
func (l *Layout[T]) Tiles() []Tile[T] {
	view := Rect{X: 1, Y: 1, Width: l.width - 2, Height: l.height - 2}
	heights := l.Heights()

	var tiles []Tile[T]
	y := 0
	for r, rg := range l.rows {
		h := heights[r]
		x := 0
		for c, w := range l.Widths(r) {
			frame := Rect{X: x, Y: y, Width: w + 1, Height: h + 1}
			pos := Pos{Row: r, Col: c}
			tiles = append(tiles, Tile[T]{
				Pos:      pos,
				Frame:    frame,
				Interior: frame.Inset(1).Intersection(view),
				Occupant: rg.cols[c].occupant,
				Focused:  pos == l.focus,
			})
			x += w
		}
		y += h
	}
	return tiles
}

// TileAt returns the tile whose interior contains the cell (x, y).
func (l *Layout[T]) TileAt(x, y int) (Pos, bool) {
	for _, t := range l.Tiles() {
		if t.Interior.Contains(x, y) {
			return t.Pos, true
		}
	}
	return Pos{}, false
}

func (l *Layout[T]) valid(p Pos) bool {
	return p.Row >= 0 && p.Row < len(l.rows) && p.Col >= 0 && p.Col < len(l.rows[p.Row].cols)
}

// At returns the occupant of the tile at p.
func (l *Layout[T]) At(p Pos) T {
	var zero T
	if !l.valid(p) {
		return zero
	}
	return l.rows[p.Row].cols[p.Col].occupant
}

// Focused returns the occupant of the focused tile.
func (l *Layout[T]) Focused() T {
	return l.At(l.focus)
}

// Place puts v into the focused tile and returns the previous occupant.
func (l *Layout[T]) Place(v T) T {
	slot := &l.rows[l.focus.Row].cols[l.focus.Col].occupant
	prev := *slot
	*slot = v
	return prev
}

// Remove empties the focused tile and returns its occupant.
func (l *Layout[T]) Remove() T {
	var zero T
	return l.Place(zero)
}

// Find returns the position of v.
func (l *Layout[T]) Find(v T) (Pos, bool) {
	var zero T
	if v == zero {
		return Pos{}, false
	}
	for r, rg := range l.rows {
		for c, col := range rg.cols {
			if col.occupant == v {
				return Pos{Row: r, Col: c}, true
			}
		}
	}
	return Pos{}, false
}

// Occupants returns every placed occupant in tile order. The held
// occupant is not included.
func (l *Layout[T]) Occupants() []T {
	var zero T
	var out []T
	for _, rg := range l.rows {
		for _, col := range rg.cols {
			if col.occupant != zero {
				out = append(out, col.occupant)
			}
		}
	}
	return out
}

// Held returns the picked-up occupant.
func (l *Layout[T]) Held() T {
	return l.held
}

// PickUp moves the focused occupant into the held slot. Anything already
// held is put down in its place. It reports false when there is nothing to
// move.
func (l *Layout[T]) PickUp() bool {
	var zero T
	if l.Focused() == zero && l.held == zero {
		return false
	}
	l.held = l.Place(l.held)
	return true
}

// PutDown places the held occupant into the focused tile and returns the
// occupant it replaced, which the caller now owns.
func (l *Layout[T]) PutDown() (T, bool) {
	var zero T
	if l.held == zero {
		return zero, false
	}
	evicted := l.Place(l.held)
	l.held = zero
	return evicted, true
}
