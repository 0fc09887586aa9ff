package desktop

import (
	"github.com/muesli/termenv"

	"github.com/odvcencio/tilewm/pkg/ui/compositor"
	"github.com/odvcencio/tilewm/pkg/ui/layout"
)

const (
	exitedLabel = " exited "
	placeholder = "(too small)"
	accentColor = "6"
)

// newHighlighter returns the focus-border style for profile. Terminals
// without color get plain reverse video.
func newHighlighter(profile termenv.Profile) func(string) string {
	if profile == termenv.Ascii {
		return compositor.Reverse
	}
	accent := profile.Color(accentColor)
	return func(s string) string {
		return profile.String(s).Foreground(accent).Reverse().String()
	}
}

// borderGrid holds the box-drawing rows of one frame.
type borderGrid struct {
	rows  map[int][]rune
	width int
}

func newBorderGrid(joints map[layout.Point]layout.Joint, width int) *borderGrid {
	g := &borderGrid{rows: make(map[int][]rune), width: width}
	for p, j := range joints {
		if p.X < 0 || p.X >= width {
			continue
		}
		row, ok := g.rows[p.Y]
		if !ok {
			row = make([]rune, width)
			for i := range row {
				row[i] = ' '
			}
			g.rows[p.Y] = row
		}
		row[p.X] = j.Rune()
	}
	return g
}

func (g *borderGrid) at(x, y int) rune {
	row, ok := g.rows[y]
	if !ok || x < 0 || x >= len(row) {
		return ' '
	}
	return row[x]
}

func (g *borderGrid) draw(f *compositor.Frame) {
	for y, row := range g.rows {
		f.Write(0, y, string(row))
	}
}

// highlight redraws the edges of r through style.
func (g *borderGrid) highlight(f *compositor.Frame, r layout.Rect, height int, style func(string) string) {
	if r.Empty() {
		return
	}
	left, right := r.X, min(r.X+r.Width-1, g.width-1)
	top, bottom := r.Y, min(r.Y+r.Height-1, height-1)

	for _, y := range []int{top, bottom} {
		seg := make([]rune, 0, right-left+1)
		for x := left; x <= right; x++ {
			seg = append(seg, g.at(x, y))
		}
		f.Write(left, y, style(string(seg)))
	}
	for y := top + 1; y < bottom; y++ {
		f.Write(left, y, style(string(g.at(left, y))))
		f.Write(right, y, style(string(g.at(right, y))))
	}
}

// label writes text into the top edge of r, leaving the corners visible.
func label(f *compositor.Frame, r layout.Rect, text string) {
	room := r.Width - 4
	if room <= 0 || text == "" {
		return
	}
	f.Write(r.X+2, r.Y, compositor.ClipText(text, 0, room))
}

// statusLine writes text into the bottom border.
func statusLine(f *compositor.Frame, width, height int, text string) {
	if height < 2 {
		return
	}
	label(f, layout.Rect{X: 0, Y: height - 1, Width: width, Height: 1}, text)
}
