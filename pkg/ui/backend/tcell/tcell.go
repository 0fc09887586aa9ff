// Package tcell provides a Backend implementation using tcell.
package tcell

import (
	"context"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/muesli/termenv"

	"github.com/odvcencio/tilewm/pkg/ui/backend"
	"github.com/odvcencio/tilewm/pkg/ui/compositor"
	"github.com/odvcencio/tilewm/pkg/ui/input"
	"github.com/odvcencio/tilewm/pkg/ui/terminal"
)

// Backend implements backend.Backend using tcell.
type Backend struct {
	screen tcell.Screen
}

// New creates a new tcell backend.
func New() (*Backend, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Backend{screen: screen}, nil
}

// NewWithScreen creates a backend with an existing tcell screen (for testing).
func NewWithScreen(screen tcell.Screen) *Backend {
	return &Backend{screen: screen}
}

// Init initializes the backend.
func (b *Backend) Init() error {
	if err := b.screen.Init(); err != nil {
		return err
	}
	b.screen.EnableMouse()
	b.screen.HideCursor()
	return nil
}

// Fini cleans up the backend.
func (b *Backend) Fini() {
	b.screen.Fini()
}

// Size returns the terminal dimensions.
func (b *Backend) Size() (width, height int) {
	return b.screen.Size()
}

// Profile reports the screen's color support.
func (b *Backend) Profile() termenv.Profile {
	return backend.ProfileForColors(b.screen.Colors())
}

// Present copies the rows that changed into the tcell screen and shows it.
func (b *Backend) Present(r *compositor.Renderer, full bool) error {
	width, height := b.screen.Size()
	if full {
		b.screen.Clear()
	}
	r.Apply(width, height, full, func(y int, row *compositor.Row) {
		b.paintRow(y, width, row)
	})
	if full {
		b.screen.Sync()
	} else {
		b.screen.Show()
	}
	return nil
}

func (b *Backend) paintRow(y, width int, row *compositor.Row) {
	style := compositor.DefaultStyle()
	for x := range width {
		cell := row.Cell(x)
		style = style.Apply(cell.Prefix)
		if cell.Continuation() {
			continue
		}
		mainc, comb := splitGlyph(cell.Glyph)
		b.screen.SetContent(x, y, mainc, comb, convertStyle(style))
	}
}

func splitGlyph(glyph string) (rune, []rune) {
	mainc, size := utf8.DecodeRuneInString(glyph)
	if size == 0 {
		return ' ', nil
	}
	var comb []rune
	for _, r := range glyph[size:] {
		comb = append(comb, r)
	}
	return mainc, comb
}

// Run forwards screen events to p until ctx ends or the screen finishes.
func (b *Backend) Run(ctx context.Context, p *input.Pipeline) error {
	stop := context.AfterFunc(ctx, func() {
		_ = b.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	for {
		ev := b.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if tev := ConvertEvent(ev); tev != nil {
			if err := p.Send(ctx, tev); err != nil {
				return err
			}
		}
	}
}

// convertStyle converts compositor.Style to tcell.Style.
func convertStyle(s compositor.Style) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(convertColor(s.FG)).
		Background(convertColor(s.BG))

	if s.Bold {
		style = style.Bold(true)
	}
	if s.Italic {
		style = style.Italic(true)
	}
	if s.Underline {
		style = style.Underline(true)
	}
	if s.Dim {
		style = style.Dim(true)
	}
	if s.Blink {
		style = style.Blink(true)
	}
	if s.Reverse {
		style = style.Reverse(true)
	}
	if s.Strikethrough {
		style = style.StrikeThrough(true)
	}

	return style
}

// convertColor converts compositor.Color to tcell.Color.
func convertColor(c compositor.Color) tcell.Color {
	switch c.Mode {
	case compositor.ColorMode16, compositor.ColorMode256:
		return tcell.PaletteColor(int(c.Value))
	case compositor.ColorModeRGB:
		r, g, b := c.RGBComponents()
		return tcell.NewRGBColor(int32(r), int32(g), int32(b))
	}
	return tcell.ColorDefault
}

var specialKeys = map[tcell.Key]terminal.Code{
	tcell.KeyUp:         terminal.CodeUp,
	tcell.KeyDown:       terminal.CodeDown,
	tcell.KeyRight:      terminal.CodeRight,
	tcell.KeyLeft:       terminal.CodeLeft,
	tcell.KeyPgUp:       terminal.CodePageUp,
	tcell.KeyPgDn:       terminal.CodePageDown,
	tcell.KeyHome:       terminal.CodeHome,
	tcell.KeyEnd:        terminal.CodeEnd,
	tcell.KeyInsert:     terminal.CodeInsert,
	tcell.KeyDelete:     terminal.CodeDelete,
	tcell.KeyBackspace:  terminal.CodeBackspace,
	tcell.KeyBackspace2: terminal.CodeBackspace,
	tcell.KeyTab:        terminal.CodeTab,
	tcell.KeyBacktab:    terminal.CodeTab,
	tcell.KeyEnter:      terminal.CodeEnter,
	tcell.KeyEscape:     terminal.CodeEsc,
	tcell.KeyF1:         terminal.CodeF1,
	tcell.KeyF2:         terminal.CodeF2,
	tcell.KeyF3:         terminal.CodeF3,
	tcell.KeyF4:         terminal.CodeF4,
	tcell.KeyF5:         terminal.CodeF5,
	tcell.KeyF6:         terminal.CodeF6,
	tcell.KeyF7:         terminal.CodeF7,
	tcell.KeyF8:         terminal.CodeF8,
	tcell.KeyF9:         terminal.CodeF9,
	tcell.KeyF10:        terminal.CodeF10,
	tcell.KeyF11:        terminal.CodeF11,
	tcell.KeyF12:        terminal.CodeF12,
}

// ConvertEvent converts a tcell event to a terminal event, or nil when the
// event has no counterpart.
func ConvertEvent(ev tcell.Event) terminal.Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return convertKey(e)
	case *tcell.EventResize:
		w, h := e.Size()
		return terminal.ResizeEvent{Width: w, Height: h}
	case *tcell.EventMouse:
		x, y := e.Position()
		return terminal.MouseEvent{
			X:      x,
			Y:      y,
			Button: convertMouseButton(e.Buttons()),
			Action: convertMouseAction(e.Buttons()),
			Mods:   convertMods(e.Modifiers()),
		}
	}
	return nil
}

func convertMods(m tcell.ModMask) terminal.Modifiers {
	var mods terminal.Modifiers
	if m&tcell.ModShift != 0 {
		mods |= terminal.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mods |= terminal.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mods |= terminal.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mods |= terminal.ModSuper
	}
	return mods
}

// convertKey maps a tcell key to a scan code. tcell cannot observe
// releases, so the transition auto-releases; its raw bytes are encoded
// from the key for terminal pass-through.
func convertKey(e *tcell.EventKey) terminal.Event {
	mods := convertMods(e.Modifiers())
	var (
		code terminal.Code
		r    rune
	)
	k := e.Key()
	switch {
	case k == tcell.KeyRune:
		r = e.Rune()
		var shift bool
		code, shift = terminal.CodeFor(r)
		if shift {
			mods |= terminal.ModShift
		}
	case specialKeys[k] != terminal.CodeNone:
		code = specialKeys[k]
		if k == tcell.KeyBacktab {
			mods |= terminal.ModShift
		}
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		code, _ = terminal.CodeFor(rune('a' + k - tcell.KeyCtrlA))
		mods |= terminal.ModCtrl
	case k == tcell.KeyCtrlSpace:
		code = terminal.CodeSpace
		mods |= terminal.ModCtrl
	}

	t := terminal.KeyTransition{
		Code:        code,
		State:       terminal.KeyPressed,
		Rune:        r,
		Mods:        mods,
		AutoRelease: true,
	}
	t.Raw = input.Encode(input.KeyEvent{Code: code, State: input.StatePressed, Rune: r, Mods: mods})
	if code == terminal.CodeNone && len(t.Raw) == 0 {
		return nil
	}
	return t
}

// convertMouseButton converts tcell button mask to terminal.MouseButton.
func convertMouseButton(buttons tcell.ButtonMask) terminal.MouseButton {
	switch {
	case buttons&tcell.WheelUp != 0:
		return terminal.MouseWheelUp
	case buttons&tcell.WheelDown != 0:
		return terminal.MouseWheelDown
	case buttons&tcell.Button1 != 0:
		return terminal.MouseLeft
	case buttons&tcell.Button2 != 0:
		return terminal.MouseMiddle
	case buttons&tcell.Button3 != 0:
		return terminal.MouseRight
	default:
		return terminal.MouseNone
	}
}

// convertMouseAction determines the mouse action from button state.
func convertMouseAction(buttons tcell.ButtonMask) terminal.MouseAction {
	if buttons == tcell.ButtonNone {
		return terminal.MouseRelease
	}
	return terminal.MousePress
}

// Ensure Backend implements backend.Backend
var _ backend.Backend = (*Backend)(nil)
