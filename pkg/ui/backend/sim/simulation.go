// Package sim runs the tcell backend on tcell's in-memory screen so tests
// can drive input and read back what was drawn.
package sim

import (
	"strings"
	"sync"

	tcellv2 "github.com/gdamore/tcell/v2"

	"github.com/odvcencio/tilewm/pkg/ui/backend"
	"github.com/odvcencio/tilewm/pkg/ui/backend/tcell"
	"github.com/odvcencio/tilewm/pkg/ui/compositor"
)

// Backend is a tcell backend over a SimulationScreen.
type Backend struct {
	*tcell.Backend
	screen        tcellv2.SimulationScreen
	mu            sync.Mutex
	width, height int
}

// New returns a width×height simulated display. Call Init before use.
func New(width, height int) *Backend {
	screen := tcellv2.NewSimulationScreen("")
	screen.SetSize(width, height)

	return &Backend{
		Backend: tcell.NewWithScreen(screen),
		screen:  screen,
		width:   width,
		height:  height,
	}
}

// Init initializes the screen and restores the requested size, which
// tcell resets on init.
func (s *Backend) Init() error {
	if err := s.Backend.Init(); err != nil {
		return err
	}
	s.Resize(s.width, s.height)
	return nil
}

// Resize changes the screen size without posting an event.
func (s *Backend) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	s.screen.SetSize(width, height)
}

// InjectKey queues a key as if typed on the host terminal.
func (s *Backend) InjectKey(key tcellv2.Key, r rune, mod tcellv2.ModMask) {
	s.screen.InjectKey(key, r, mod)
}

// InjectKeyRune queues an unmodified printable key.
func (s *Backend) InjectKeyRune(r rune) {
	s.InjectKey(tcellv2.KeyRune, r, tcellv2.ModNone)
}

// InjectMouse queues a mouse report at cell (x, y).
func (s *Backend) InjectMouse(x, y int, buttons tcellv2.ButtonMask) {
	s.screen.InjectMouse(x, y, buttons, tcellv2.ModNone)
}

// InjectResize resizes the screen and posts the resize event.
func (s *Backend) InjectResize(width, height int) {
	s.Resize(width, height)
	_ = s.screen.PostEvent(tcellv2.NewEventResize(width, height))
}

// Capture returns the whole screen, one line per row.
func (s *Backend) Capture() string {
	w, h := s.Size()
	return s.CaptureRegion(0, 0, w, h)
}

// CaptureCell reports the glyph and style drawn at (x, y).
func (s *Backend) CaptureCell(x, y int) (mainc rune, comb []rune, style compositor.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, c, ts, _ := s.screen.GetContent(x, y)
	return m, c, convertTcellStyle(ts)
}

// CaptureRegion returns the w×h block at (x, y). Empty cells read as
// spaces and a wide glyph covers its continuation column.
func (s *Backend) CaptureRegion(x, y, w, h int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]string, 0, max(h, 0))
	for row := y; row < y+h; row++ {
		rows = append(rows, s.rowText(row, x, x+w))
	}
	return strings.Join(rows, "\n")
}

// rowText reads columns [from, to) of row. Callers hold mu.
func (s *Backend) rowText(row, from, to int) string {
	var sb strings.Builder
	for col := from; col < to; {
		mainc, comb, _, cw := s.screen.GetContent(col, row)
		if mainc == 0 {
			mainc = ' '
		}
		sb.WriteRune(mainc)
		for _, r := range comb {
			sb.WriteRune(r)
		}
		col += max(cw, 1)
	}
	return sb.String()
}

// FindText returns the cell where text first appears, scanning rows top
// to bottom, or (-1, -1).
func (s *Backend) FindText(text string) (x, y int) {
	w, h := s.Size()
	s.mu.Lock()
	defer s.mu.Unlock()
	for row := range h {
		line := s.rowText(row, 0, w)
		if col := strings.Index(line, text); col >= 0 {
			return compositor.VisibleWidth(line[:col]), row
		}
	}
	return -1, -1
}

// ContainsText reports whether text is anywhere on screen.
func (s *Backend) ContainsText(text string) bool {
	_, y := s.FindText(text)
	return y >= 0
}

// convertTcellStyle maps a drawn tcell style back to a compositor style.
func convertTcellStyle(ts tcellv2.Style) compositor.Style {
	fg, bg, attrs := ts.Decompose()
	style := compositor.DefaultStyle()
	style.FG = convertTcellColor(fg)
	style.BG = convertTcellColor(bg)
	style.Bold = attrs&tcellv2.AttrBold != 0
	style.Italic = attrs&tcellv2.AttrItalic != 0
	style.Underline = attrs&tcellv2.AttrUnderline != 0
	style.Dim = attrs&tcellv2.AttrDim != 0
	style.Blink = attrs&tcellv2.AttrBlink != 0
	style.Reverse = attrs&tcellv2.AttrReverse != 0
	style.Strikethrough = attrs&tcellv2.AttrStrikeThrough != 0
	return style
}

func convertTcellColor(tc tcellv2.Color) compositor.Color {
	if tc == tcellv2.ColorDefault {
		return compositor.ColorDefault
	}
	if tc&tcellv2.ColorIsRGB != 0 {
		r, g, b := tc.RGB()
		return compositor.RGB(uint8(r), uint8(g), uint8(b))
	}
	index := uint8(tc & 0xFF)
	if index < 16 {
		return compositor.Color16(index)
	}
	return compositor.Color256(index)
}

var _ backend.Backend = (*Backend)(nil)
