package layout

// Joint records which directions box-drawing lines leave a cell in.
type Joint uint8

const (
	JointUp Joint = 1 << iota
	JointDown
	JointLeft
	JointRight
)

var jointRunes = map[Joint]rune{
	JointLeft | JointRight:                       '─',
	JointLeft:                                    '─',
	JointRight:                                   '─',
	JointUp | JointDown:                          '│',
	JointUp:                                      '│',
	JointDown:                                    '│',
	JointDown | JointRight:                       '┌',
	JointDown | JointLeft:                        '┐',
	JointUp | JointRight:                         '└',
	JointUp | JointLeft:                          '┘',
	JointUp | JointDown | JointRight:             '├',
	JointUp | JointDown | JointLeft:              '┤',
	JointLeft | JointRight | JointDown:           '┬',
	JointLeft | JointRight | JointUp:             '┴',
	JointUp | JointDown | JointLeft | JointRight: '┼',
}

// Rune returns the box-drawing character for the joint.
func (j Joint) Rune() rune {
	if r, ok := jointRunes[j]; ok {
		return r
	}
	return ' '
}

// Borders returns the box-drawing joint of every border and separator cell
// in the viewport.
func (l *Layout[T]) Borders() map[Point]Joint {
	w, h := l.width, l.height
	b := borders{joints: make(map[Point]Joint), width: w, height: h}
	if w < 2 || h < 2 {
		return b.joints
	}

	b.hline(0, w-1, 0)
	b.hline(0, w-1, h-1)
	b.vline(0, 0, h-1)
	b.vline(w-1, 0, h-1)

	heights := l.Heights()
	y := 0
	for r := range l.rows {
		bottom := y + heights[r]
		if r < len(l.rows)-1 {
			b.hline(0, w-1, bottom)
		}
		widths := l.Widths(r)
		x := 0
		for c := 0; c < len(widths)-1; c++ {
			x += widths[c]
			b.vline(x, y, bottom)
		}
		y = bottom
	}
	return b.joints
}

type borders struct {
	joints        map[Point]Joint
	width, height int
}

func (b *borders) mark(x, y int, j Joint) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return
	}
	b.joints[Point{X: x, Y: y}] |= j
}

func (b *borders) hline(x0, x1, y int) {
	for x := x0; x <= x1; x++ {
		if x > x0 {
			b.mark(x, y, JointLeft)
		}
		if x < x1 {
			b.mark(x, y, JointRight)
		}
	}
}

func (b *borders) vline(x, y0, y1 int) {
	for y := y0; y <= y1; y++ {
		if y > y0 {
			b.mark(x, y, JointUp)
		}
		if y < y1 {
			b.mark(x, y, JointDown)
		}
	}
}
