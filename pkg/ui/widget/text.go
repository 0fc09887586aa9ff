package widget

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/odvcencio/tilewm/pkg/ui/compositor"
	"github.com/odvcencio/tilewm/pkg/ui/input"
	"github.com/odvcencio/tilewm/pkg/ui/terminal"
)

// Text is a static, scrollable text occupant with a title line.
type Text struct {
	Base
	title  string
	body   string
	repeat input.RepeatPolicy

	titleStyle lipgloss.Style
	bodyStyle  lipgloss.Style

	lines     []string // body wrapped to wrapWidth
	wrapWidth int
	offset    int
	viewRows  int
}

var _ Occupant = (*Text)(nil)

// NewText creates a text occupant registered as name.
func NewText(name, title, body string) *Text {
	return &Text{
		Base:       NewBase(name),
		title:      title,
		body:       body,
		repeat:     input.DefaultRepeat(),
		titleStyle: lipgloss.NewStyle().Bold(true),
		bodyStyle:  lipgloss.NewStyle(),
		wrapWidth:  -1,
	}
}

// SetRepeat sets the policy for held scroll keys.
func (t *Text) SetRepeat(p input.RepeatPolicy) {
	t.repeat = p
}

// Hints returns the text's natural size.
func (t *Text) Hints() Hints {
	width := compositor.VisibleWidth(t.title)
	lines := strings.Split(t.body, "\n")
	for _, line := range lines {
		width = max(width, compositor.VisibleWidth(line))
	}
	return Hints{
		MinWidth:   4,
		MinHeight:  1,
		PrefWidth:  width,
		PrefHeight: len(lines) + 1,
	}
}

// Offset returns the first visible body line.
func (t *Text) Offset() int {
	return t.offset
}

// Update scrolls the body with the arrow and page keys when focused.
func (t *Text) Update(in Input) bool {
	if in.Focused {
		for _, k := range in.Keys {
			if t.repeat.Fires(k) && t.scroll(k.Code) {
				t.Invalidate()
			}
		}
	}
	changed := t.NeedsRender()
	t.ClearInvalidation()
	return changed
}

func (t *Text) scroll(code terminal.Code) bool {
	page := max(t.viewRows, 1)
	prev := t.offset
	switch code {
	case terminal.CodeUp:
		t.offset--
	case terminal.CodeDown:
		t.offset++
	case terminal.CodePageUp:
		t.offset -= page
	case terminal.CodePageDown:
		t.offset += page
	case terminal.CodeHome:
		t.offset = 0
	case terminal.CodeEnd:
		t.offset = len(t.lines)
	}
	t.offset = max(0, min(t.offset, len(t.lines)-page))
	return t.offset != prev
}

// Draw renders the title on the first line and the wrapped body below it.
func (t *Text) Draw(c compositor.Canvas, focused bool) {
	width, height := c.Size()
	if width <= 0 || height <= 0 {
		return
	}
	if width != t.wrapWidth {
		t.wrap(width)
	}
	t.viewRows = height - 1

	title := t.titleStyle.Render(t.title)
	if focused {
		title = compositor.Reverse(title)
	}
	c.Write(0, 0, title)

	for y := 1; y < height; y++ {
		i := t.offset + y - 1
		if i >= len(t.lines) {
			break
		}
		c.Write(0, y, t.lines[i])
	}
}

func (t *Text) wrap(width int) {
	t.wrapWidth = width
	t.lines = strings.Split(t.bodyStyle.Width(width).Render(t.body), "\n")
	t.offset = min(t.offset, max(0, len(t.lines)-1))
}
