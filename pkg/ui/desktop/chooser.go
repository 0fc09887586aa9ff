package desktop

import (
	"github.com/odvcencio/tilewm/pkg/ui/compositor"
)

const chooserTitle = " choose an app "

// chooser is the app list shown over the focused tile.
type chooser struct {
	names    []string
	selected int
}

func (c *chooser) open(names []string) {
	c.names = names
	c.selected = 0
}

func (c *chooser) move(delta int) bool {
	if len(c.names) == 0 {
		return false
	}
	prev := c.selected
	c.selected = max(0, min(c.selected+delta, len(c.names)-1))
	return c.selected != prev
}

func (c *chooser) current() (string, bool) {
	if c.selected < 0 || c.selected >= len(c.names) {
		return "", false
	}
	return c.names[c.selected], true
}

// draw paints the list into r, scrolling so the selection stays visible.
func (c *chooser) draw(r *compositor.Region) {
	width, height := r.Size()
	if width <= 0 || height <= 0 {
		return
	}
	r.Fill(" ")
	r.Write(0, 0, compositor.Reverse(chooserTitle))

	rows := height - 1
	if rows <= 0 {
		return
	}
	first := max(0, c.selected-rows+1)
	for i := first; i < len(c.names) && i-first < rows; i++ {
		line := "  " + c.names[i]
		if i == c.selected {
			line = compositor.Reverse("> " + c.names[i])
		}
		r.Write(0, 1+i-first, line)
	}
}
