// Package layout implements the tiling layout: a list of row-groups, each
// holding a list of columns, with one occupant slot per tile.
//
// Extents are measured from separator to separator, so the heights of all
// row-groups add up to the viewport height minus one and the widths in each
// row-group add up to the viewport width minus one. The last row-group and
// the last column of every row-group have no stored extent: they fill what
// the others leave.
//
// Edits that would leave a tile below its minimum size are refused by
// returning false; nothing is changed in that case.
package layout

import (
	"errors"
	"fmt"
	"slices"
)

// Minimum extents enforced by edits.
const (
	MinSplitHeight  = 2
	MinSplitWidth   = 2
	MinRemainWidth  = 6
	MinResizeExtent = 3
)

// ErrInvalidSpec is returned for a preset that cannot form a layout.
var ErrInvalidSpec = errors.New("invalid layout spec")

// Direction is a focus or edit direction.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// Placement selects which side of the focused tile an edit applies to.
type Placement int

const (
	Before Placement = iota
	After
)

// RowSpec is a row-group preset: its height and the widths of its
// columns. Zero marks the filling row-group or column.
type RowSpec struct {
	Height  int   `yaml:"height"`
	Columns []int `yaml:"columns"`
}

type column[T comparable] struct {
	width    int
	occupant T
}

type rowGroup[T comparable] struct {
	height int
	cols   []column[T]
}

// Layout is a tiling of a width x height viewport. The zero value of T
// marks an empty tile.
type Layout[T comparable] struct {
	rows   []rowGroup[T]
	focus  Pos
	held   T
	width  int
	height int
}

// New creates a layout with one tile filling the viewport.
func New[T comparable](width, height int) *Layout[T] {
	return &Layout[T]{
		rows:   []rowGroup[T]{{cols: []column[T]{{}}}},
		width:  width,
		height: height,
	}
}

// FromSpec creates a layout from a preset. An empty preset gives a single
// tile.
func FromSpec[T comparable](width, height int, spec []RowSpec) (*Layout[T], error) {
	l := New[T](width, height)
	if len(spec) == 0 {
		return l, nil
	}

	rows := make([]rowGroup[T], 0, len(spec))
	for i, rs := range spec {
		if rs.Height < 0 || (rs.Height == 0 && i < len(spec)-1) {
			return nil, fmt.Errorf("%w: row %d height %d", ErrInvalidSpec, i, rs.Height)
		}
		rg := rowGroup[T]{height: rs.Height}
		if len(rs.Columns) == 0 {
			rg.cols = []column[T]{{}}
		}
		for j, w := range rs.Columns {
			if w < 0 || (w == 0 && j < len(rs.Columns)-1) {
				return nil, fmt.Errorf("%w: row %d column %d width %d", ErrInvalidSpec, i, j, w)
			}
			rg.cols = append(rg.cols, column[T]{width: w})
		}
		rows = append(rows, rg)
	}
	l.rows = rows
	l.normalize()
	l.fit()
	return l, nil
}

// Resize sets the viewport size and reports whether it changed. Stored
// extents that no longer fit are scaled down proportionally; growth goes
// to the filling row-group and columns.
func (l *Layout[T]) Resize(width, height int) bool {
	if width == l.width && height == l.height {
		return false
	}
	l.width, l.height = width, height
	l.fit()
	return true
}

// fit shrinks the stored extents so they never exceed the viewport.
func (l *Layout[T]) fit() {
	heights := make([]int, len(l.rows)-1)
	for i := range heights {
		heights[i] = l.rows[i].height
	}
	shrink(heights, l.height-1)
	for i, h := range heights {
		l.rows[i].height = h
	}

	for r := range l.rows {
		cols := l.rows[r].cols
		widths := make([]int, len(cols)-1)
		for i := range widths {
			widths[i] = cols[i].width
		}
		shrink(widths, l.width-1)
		for i, w := range widths {
			cols[i].width = w
		}
	}
	l.normalize()
}

// shrink scales ext down so it sums to at most avail, keeping every entry
// at 1 or more while there is room for it.
func shrink(ext []int, avail int) {
	used := 0
	for _, e := range ext {
		used += e
	}
	avail = max(avail, 0)
	if used <= avail {
		return
	}
	for i, e := range ext {
		ext[i] = e * avail / used
	}
	for i := range ext {
		if ext[i] > 0 {
			continue
		}
		j := 0
		for k := range ext {
			if ext[k] > ext[j] {
				j = k
			}
		}
		if ext[j] <= 1 {
			return
		}
		ext[j]--
		ext[i] = 1
	}
}

// Size returns the viewport size.
func (l *Layout[T]) Size() (int, int) {
	return l.width, l.height
}

// Rows returns the number of row-groups.
func (l *Layout[T]) Rows() int {
	return len(l.rows)
}

// Columns returns the number of columns in row-group row.
func (l *Layout[T]) Columns(row int) int {
	if row < 0 || row >= len(l.rows) {
		return 0
	}
	return len(l.rows[row].cols)
}

// Heights returns the extent of every row-group.
func (l *Layout[T]) Heights() []int {
	ext := make([]int, len(l.rows))
	for i, rg := range l.rows {
		ext[i] = rg.height
	}
	return fill(ext, l.height-1)
}

// Widths returns the extent of every column in row-group row.
func (l *Layout[T]) Widths(row int) []int {
	if row < 0 || row >= len(l.rows) {
		return nil
	}
	cols := l.rows[row].cols
	ext := make([]int, len(cols))
	for i, c := range cols {
		ext[i] = c.width
	}
	return fill(ext, l.width-1)
}

// fill resolves the last entry to what remains of avail.
func fill(ext []int, avail int) []int {
	last := len(ext) - 1
	used := 0
	for _, e := range ext[:last] {
		used += e
	}
	ext[last] = max(0, avail-used)
	return ext
}

func (l *Layout[T]) setHeights(ext []int) {
	for i := range l.rows {
		l.rows[i].height = ext[i]
	}
	l.normalize()
}

func (l *Layout[T]) setWidths(row int, ext []int) {
	cols := l.rows[row].cols
	for i := range cols {
		cols[i].width = ext[i]
	}
	l.normalize()
}

// normalize restores the fill markers and clamps focus.
func (l *Layout[T]) normalize() {
	l.rows[len(l.rows)-1].height = 0
	for i := range l.rows {
		cols := l.rows[i].cols
		cols[len(cols)-1].width = 0
	}
	l.clampFocus()
}

func (l *Layout[T]) clampFocus() {
	l.focus.Row = clamp(l.focus.Row, 0, len(l.rows)-1)
	l.focus.Col = clamp(l.focus.Col, 0, len(l.rows[l.focus.Row].cols)-1)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Focus returns the focused tile.
func (l *Layout[T]) Focus() Pos {
	return l.focus
}

// SetFocus focuses the tile nearest to p.
func (l *Layout[T]) SetFocus(p Pos) {
	l.focus = p
	l.clampFocus()
}

// MoveFocus moves focus one tile in d and reports whether it moved.
func (l *Layout[T]) MoveFocus(d Direction) bool {
	prev := l.focus
	switch d {
	case Up:
		l.focus.Row--
	case Down:
		l.focus.Row++
	case Left:
		l.focus.Col--
	case Right:
		l.focus.Col++
	}
	l.clampFocus()
	return l.focus != prev
}

// SplitRow inserts an empty row-group before or after the focused one,
// halving its height. The new row-group gets the smaller half. Focus stays
// on the split tile for Before and follows the new row-group for After.
func (l *Layout[T]) SplitRow(p Placement) bool {
	ext := l.Heights()
	f := l.focus.Row
	small := ext[f] / 2
	if small < MinSplitHeight {
		return false
	}
	large := ext[f] - small

	fresh := rowGroup[T]{cols: []column[T]{{}}}
	at := f
	if p == After {
		at = f + 1
	}
	l.rows = slices.Insert(l.rows, at, fresh)
	ext = slices.Insert(ext, at, small)
	if p == Before {
		ext[f+1] = large
	} else {
		ext[f] = large
	}
	col := l.focus.Col
	if p == After {
		col = 0
	}
	l.focus = Pos{Row: f + 1, Col: col}
	l.setHeights(ext)
	return true
}

// SplitColumn inserts an empty column before or after the focused one
// within the focused row-group. The new column takes half of the width and
// the focused column must keep at least MinRemainWidth. Focus stays on the
// split tile for Before and follows the new column for After.
func (l *Layout[T]) SplitColumn(p Placement) bool {
	row := l.focus.Row
	ext := l.Widths(row)
	f := l.focus.Col

	var fresh, keep int
	if p == Before {
		fresh = ext[f] - ext[f]/2
	} else {
		fresh = ext[f] / 2
	}
	keep = ext[f] - fresh
	if fresh < MinSplitWidth || keep < MinRemainWidth {
		return false
	}

	at := f
	if p == After {
		at = f + 1
	}
	rg := &l.rows[row]
	rg.cols = slices.Insert(rg.cols, at, column[T]{})
	ext = slices.Insert(ext, at, fresh)
	if p == Before {
		ext[f+1] = keep
	} else {
		ext[f] = keep
	}
	l.focus.Col = f + 1
	l.setWidths(row, ext)
	return true
}

// DeleteRow removes the row-group before or after the focused one. Its
// height goes to the row-group preceding it, or to the next one when it
// was first. The occupants of the removed tiles
// are returned so the caller can close them.
func (l *Layout[T]) DeleteRow(p Placement) ([]T, bool) {
	ext := l.Heights()
	f := l.focus.Row
	victim := f - 1
	if p == After {
		victim = f + 1
	}
	if victim < 0 || victim >= len(l.rows) {
		return nil, false
	}

	var evicted []T
	var zero T
	for _, c := range l.rows[victim].cols {
		if c.occupant != zero {
			evicted = append(evicted, c.occupant)
		}
	}

	ext[heir(victim)] += ext[victim]
	l.rows = slices.Delete(l.rows, victim, victim+1)
	ext = slices.Delete(ext, victim, victim+1)
	if victim < f {
		l.focus.Row--
	}
	l.setHeights(ext)
	return evicted, true
}

// DeleteColumn removes the column before or after the focused one in the
// focused row-group. Its width goes to the column preceding it, or to the
// next one when it was first. The occupant of
// the removed tile is returned so the caller can close it.
func (l *Layout[T]) DeleteColumn(p Placement) ([]T, bool) {
	row := l.focus.Row
	ext := l.Widths(row)
	f := l.focus.Col
	victim := f - 1
	if p == After {
		victim = f + 1
	}
	rg := &l.rows[row]
	if victim < 0 || victim >= len(rg.cols) {
		return nil, false
	}

	var evicted []T
	var zero T
	if occ := rg.cols[victim].occupant; occ != zero {
		evicted = append(evicted, occ)
	}

	ext[heir(victim)] += ext[victim]
	rg.cols = slices.Delete(rg.cols, victim, victim+1)
	ext = slices.Delete(ext, victim, victim+1)
	if victim < f {
		l.focus.Col--
	}
	l.setWidths(row, ext)
	return evicted, true
}

// heir is the sibling that inherits the extent of a removed entry.
func heir(victim int) int {
	if victim == 0 {
		return 1
	}
	return victim - 1
}

// ResizeRow grows (delta > 0) or shrinks the focused row-group by delta,
// trading height with the next row-group, or the previous one when the
// focused row-group is last.
func (l *Layout[T]) ResizeRow(delta int) bool {
	ext := l.Heights()
	f := l.focus.Row
	if !trade(ext, f, delta) {
		return false
	}
	l.setHeights(ext)
	return true
}

// ResizeColumn grows (delta > 0) or shrinks the focused column by delta,
// trading width with the next column, or the previous one when the focused
// column is last.
func (l *Layout[T]) ResizeColumn(delta int) bool {
	row := l.focus.Row
	ext := l.Widths(row)
	if !trade(ext, l.focus.Col, delta) {
		return false
	}
	l.setWidths(row, ext)
	return true
}

func trade(ext []int, f, delta int) bool {
	if len(ext) < 2 || delta == 0 {
		return false
	}
	nb := f + 1
	if f == len(ext)-1 {
		nb = f - 1
	}
	if ext[f]+delta < MinResizeExtent || ext[nb]-delta < MinResizeExtent {
		return false
	}
	ext[f] += delta
	ext[nb] -= delta
	return true
}
