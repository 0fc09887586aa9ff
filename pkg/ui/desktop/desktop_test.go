package desktop

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/tilewm/pkg/ui/backend"
	"github.com/odvcencio/tilewm/pkg/ui/backend/sim"
	"github.com/odvcencio/tilewm/pkg/ui/compositor"
	"github.com/odvcencio/tilewm/pkg/ui/input"
	"github.com/odvcencio/tilewm/pkg/ui/layout"
	"github.com/odvcencio/tilewm/pkg/ui/terminal"
	"github.com/odvcencio/tilewm/pkg/ui/widget"
)

type fakeOccupant struct {
	widget.Base
	hints   widget.Hints
	text    string
	created [2]int
	inputs  []widget.Input
	resizes [][2]int
	closed  int
	defunct bool
}

func (f *fakeOccupant) Hints() widget.Hints { return f.hints }

func (f *fakeOccupant) Update(in widget.Input) bool {
	f.inputs = append(f.inputs, in)
	return false
}

func (f *fakeOccupant) Draw(c compositor.Canvas, focused bool) {
	c.Write(0, 0, f.text)
}

func (f *fakeOccupant) Resize(w, h int) {
	f.Base.Resize(w, h)
	f.resizes = append(f.resizes, [2]int{w, h})
}

func (f *fakeOccupant) Close() error {
	f.closed++
	return nil
}

func (f *fakeOccupant) Defunct() bool { return f.defunct }

func (f *fakeOccupant) lastInput(t *testing.T) widget.Input {
	t.Helper()
	require.NotEmpty(t, f.inputs)
	return f.inputs[len(f.inputs)-1]
}

type harness struct {
	d     *Desktop
	sim   *sim.Backend
	p     *input.Pipeline
	made  []*fakeOccupant
	hints widget.Hints
}

func newHarness(t *testing.T, w, h int, cfg Config) *harness {
	t.Helper()
	s := sim.New(w, h)
	require.NoError(t, s.Init())
	t.Cleanup(s.Fini)

	hr := &harness{sim: s, p: input.NewPipeline(64), hints: widget.Hints{MinWidth: 1, MinHeight: 1}}
	reg := widget.NewRegistry()
	require.NoError(t, reg.Register("help", func(int, int) (widget.Occupant, error) {
		return widget.NewText("help", "Help", "line one\nline two"), nil
	}))
	require.NoError(t, reg.Register("fake", func(w, h int) (widget.Occupant, error) {
		f := &fakeOccupant{Base: widget.NewBase("fake"), hints: hr.hints, text: "hello", created: [2]int{w, h}}
		hr.made = append(hr.made, f)
		return f, nil
	}))

	d, err := New(s, reg, hr.p, cfg)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	hr.d = d
	return hr
}

func (h *harness) cycle(t *testing.T) {
	t.Helper()
	require.NoError(t, h.d.Cycle())
}

// tap presses and releases a key, leaving the pipeline ready for the next
// press of the same key.
func (h *harness) tap(t *testing.T, code terminal.Code, mods terminal.Modifiers) {
	t.Helper()
	require.True(t, h.p.TrySend(terminal.KeyTransition{Code: code, State: terminal.KeyPressed, Mods: mods, AutoRelease: true}))
	h.cycle(t)
	h.cycle(t)
}

func (h *harness) open(t *testing.T) *fakeOccupant {
	t.Helper()
	require.NoError(t, h.d.Open("fake"))
	return h.made[len(h.made)-1]
}

func (h *harness) line(y int) string {
	w, _ := h.sim.Size()
	return h.sim.CaptureRegion(0, y, w, 1)
}

func TestDesktop_BordersAndStatus(t *testing.T) {
	h := newHarness(t, 20, 6, Config{})
	h.cycle(t)

	assert.Equal(t, "┌"+strings.Repeat("─", 18)+"┐", h.line(0))
	assert.Equal(t, "│"+strings.Repeat(" ", 18)+"│", h.line(2))
	assert.Equal(t, "└─ apps ─"+strings.Repeat("─", 10)+"┘", h.line(5))
}

func TestDesktop_OpenDrawsIntoInterior(t *testing.T) {
	h := newHarness(t, 20, 6, Config{})
	h.cycle(t)
	f := h.open(t)
	h.cycle(t)

	assert.Equal(t, [2]int{18, 4}, f.created)
	assert.Empty(t, f.resizes, "created at the interior size")
	assert.Equal(t, "│hello", h.sim.CaptureRegion(0, 1, 6, 1))
	assert.Equal(t, "┌─ fake ─", h.sim.CaptureRegion(0, 0, 9, 1))
	assert.Equal(t, f, h.d.Layout().Focused())
}

func TestDesktop_FocusedOccupantGetsInput(t *testing.T) {
	h := newHarness(t, 20, 6, Config{})
	h.cycle(t)
	f := h.open(t)

	require.True(t, h.p.TrySend(terminal.KeyTransition{
		Code: terminal.CodeA, State: terminal.KeyPressed, Rune: 'a', Raw: []byte("a"), AutoRelease: true,
	}))
	h.cycle(t)

	in := f.lastInput(t)
	assert.True(t, in.Focused)
	assert.Equal(t, []byte("a"), in.Raw)
	require.Len(t, in.Keys, 1)
	assert.Equal(t, terminal.CodeA, in.Keys[0].Code)
}

func TestDesktop_KeysWithoutBytesAreEncoded(t *testing.T) {
	h := newHarness(t, 20, 6, Config{})
	h.cycle(t)
	f := h.open(t)

	require.True(t, h.p.TrySend(terminal.KeyTransition{Code: terminal.CodeA, State: terminal.KeyPressed}))
	h.cycle(t)
	assert.Equal(t, []byte("a"), f.lastInput(t).Raw)

	// Held: even hold frames repeat, odd ones do not.
	h.cycle(t)
	assert.Empty(t, f.lastInput(t).Raw)
	h.cycle(t)
	assert.Equal(t, []byte("a"), f.lastInput(t).Raw)
}

func TestDesktop_LayoutModeSwallowsInput(t *testing.T) {
	h := newHarness(t, 20, 6, Config{})
	h.cycle(t)
	f := h.open(t)

	require.True(t, h.p.TrySend(terminal.KeyTransition{
		Code: terminal.CodeL, State: terminal.KeyPressed, Mods: terminal.ModCtrl, Raw: []byte{0x0c}, AutoRelease: true,
	}))
	h.cycle(t)
	assert.Equal(t, ModeLayout, h.d.Mode())
	in := f.lastInput(t)
	assert.False(t, in.Focused)
	assert.Empty(t, in.Raw)
	assert.Contains(t, h.line(5), " layout ")

	h.cycle(t)
	h.tap(t, terminal.CodeL, terminal.ModCtrl)
	assert.Equal(t, ModeApps, h.d.Mode())
}

func TestDesktop_FocusHighlightInLayoutMode(t *testing.T) {
	h := newHarness(t, 20, 6, Config{})
	h.cycle(t)
	_, _, style := h.sim.CaptureCell(0, 0)
	assert.False(t, style.Reverse)

	h.tap(t, terminal.CodeL, terminal.ModCtrl)
	_, _, style = h.sim.CaptureCell(0, 0)
	assert.True(t, style.Reverse)
	_, _, style = h.sim.CaptureCell(0, 3)
	assert.True(t, style.Reverse)
	_, _, style = h.sim.CaptureCell(5, 3)
	assert.False(t, style.Reverse)
}

func TestDesktop_SplitAndRefusedEdit(t *testing.T) {
	h := newHarness(t, 20, 6, Config{})
	h.cycle(t)
	h.tap(t, terminal.CodeL, terminal.ModCtrl)

	h.tap(t, terminal.CodeS, terminal.ModCtrl)
	require.Equal(t, 2, h.d.Layout().Rows())
	assert.Equal(t, []int{3, 2}, h.d.Layout().Heights())
	assert.Equal(t, layout.Pos{Row: 1}, h.d.Layout().Focus())
	assert.Equal(t, "├"+strings.Repeat("─", 18)+"┤", h.line(3))

	// Two rows leave no room for a third.
	h.tap(t, terminal.CodeS, terminal.ModCtrl)
	assert.Equal(t, 2, h.d.Layout().Rows())
	assert.Equal(t, []int{3, 2}, h.d.Layout().Heights())
}

func TestDesktop_DeleteRowClosesOccupants(t *testing.T) {
	h := newHarness(t, 30, 12, Config{})
	h.cycle(t)
	h.tap(t, terminal.CodeL, terminal.ModCtrl)
	h.tap(t, terminal.CodeS, terminal.ModCtrl)
	f := h.open(t)

	h.tap(t, terminal.CodeUp, 0)
	assert.Equal(t, layout.Pos{}, h.d.Layout().Focus())
	h.tap(t, terminal.CodeS, terminal.ModCtrl|terminal.ModAlt)

	assert.Equal(t, 1, h.d.Layout().Rows())
	assert.Equal(t, 1, f.closed)
	assert.Empty(t, h.d.Layout().Occupants())
}

func TestDesktop_CloseOccupant(t *testing.T) {
	h := newHarness(t, 20, 6, Config{})
	h.cycle(t)
	f := h.open(t)
	h.tap(t, terminal.CodeL, terminal.ModCtrl)
	h.tap(t, terminal.CodeDelete, 0)

	assert.Equal(t, 1, f.closed)
	assert.Nil(t, h.d.Layout().Focused())
	assert.False(t, h.sim.ContainsText("hello"))
}

func TestDesktop_ResizeOccupantRepeats(t *testing.T) {
	h := newHarness(t, 30, 12, Config{})
	h.cycle(t)
	h.tap(t, terminal.CodeL, terminal.ModCtrl)
	h.tap(t, terminal.CodeS, terminal.ModCtrl)
	require.Equal(t, []int{6, 5}, h.d.Layout().Heights())

	// alt+W shrinks the focused row on the press and every other held frame.
	require.True(t, h.p.TrySend(terminal.KeyTransition{Code: terminal.CodeW, State: terminal.KeyPressed, Mods: terminal.ModAlt}))
	h.cycle(t)
	assert.Equal(t, []int{7, 4}, h.d.Layout().Heights())
	h.cycle(t)
	assert.Equal(t, []int{7, 4}, h.d.Layout().Heights())
	h.cycle(t)
	assert.Equal(t, []int{8, 3}, h.d.Layout().Heights())
	h.cycle(t)
	h.cycle(t)
	assert.Equal(t, []int{8, 3}, h.d.Layout().Heights(), "minimum reached")

	require.True(t, h.p.TrySend(terminal.KeyTransition{Code: terminal.CodeW, State: terminal.KeyReleased, Mods: terminal.ModAlt}))
	h.cycle(t)
	h.cycle(t)
	assert.Equal(t, []int{8, 3}, h.d.Layout().Heights())
}

func TestDesktop_ResizePropagates(t *testing.T) {
	h := newHarness(t, 20, 6, Config{})
	h.cycle(t)
	f := h.open(t)
	h.cycle(t)

	h.sim.Resize(30, 8)
	h.cycle(t)
	assert.Equal(t, [][2]int{{28, 6}}, f.resizes)

	h.cycle(t)
	assert.Len(t, f.resizes, 1, "unchanged interiors are not resized again")
	assert.Contains(t, h.line(7), " apps ")
}

func TestDesktop_HostShrinkRescalesRows(t *testing.T) {
	h := newHarness(t, 30, 12, Config{})
	h.cycle(t)
	h.tap(t, terminal.CodeL, terminal.ModCtrl)
	h.tap(t, terminal.CodeS, terminal.ModCtrl)
	require.Equal(t, []int{6, 5}, h.d.Layout().Heights())

	h.sim.Resize(20, 6)
	h.cycle(t)
	assert.Equal(t, []int{5, 0}, h.d.Layout().Heights())
	assert.Equal(t, []int{19}, h.d.Layout().Widths(0))
}

func TestDesktop_TooSmallPlaceholder(t *testing.T) {
	h := newHarness(t, 20, 6, Config{})
	h.hints = widget.Hints{MinWidth: 40, MinHeight: 1}
	h.cycle(t)
	f := h.open(t)
	h.sim.Resize(22, 6)
	h.cycle(t)

	assert.Empty(t, f.resizes)
	assert.True(t, h.sim.ContainsText(placeholder))
	assert.False(t, h.sim.ContainsText("hello"))
}

func TestDesktop_DefunctLabel(t *testing.T) {
	h := newHarness(t, 20, 6, Config{})
	h.cycle(t)
	f := h.open(t)
	h.cycle(t)
	assert.False(t, h.sim.ContainsText("exited"))

	f.defunct = true
	h.cycle(t)
	assert.Equal(t, "┌─ exited ─", h.sim.CaptureRegion(0, 0, 11, 1))
}

func TestDesktop_Chooser(t *testing.T) {
	h := newHarness(t, 30, 10, Config{})
	h.cycle(t)
	h.tap(t, terminal.CodeL, terminal.ModCtrl)
	h.tap(t, terminal.CodeEnter, 0)
	require.Equal(t, ModeChoose, h.d.Mode())
	assert.True(t, h.sim.ContainsText("choose an app"))
	assert.True(t, h.sim.ContainsText("> help"))

	h.tap(t, terminal.CodeDown, 0)
	assert.True(t, h.sim.ContainsText("> fake"))
	h.tap(t, terminal.CodeEnter, 0)

	assert.Equal(t, ModeApps, h.d.Mode())
	require.Len(t, h.made, 1)
	assert.Equal(t, h.made[0], h.d.Layout().Focused())
	assert.Equal(t, [2]int{28, 8}, h.made[0].created)
	assert.False(t, h.sim.ContainsText("choose an app"))
}

func TestDesktop_ChooserCancel(t *testing.T) {
	h := newHarness(t, 30, 10, Config{})
	h.cycle(t)
	h.tap(t, terminal.CodeL, terminal.ModCtrl)
	h.tap(t, terminal.CodeEnter, 0)
	h.tap(t, terminal.CodeEsc, 0)

	assert.Equal(t, ModeLayout, h.d.Mode())
	assert.Nil(t, h.d.Layout().Focused())
}

func TestDesktop_Fullscreen(t *testing.T) {
	h := newHarness(t, 40, 10, Config{})
	h.cycle(t)
	left := h.open(t)
	h.tap(t, terminal.CodeL, terminal.ModCtrl)
	h.tap(t, terminal.CodeD, terminal.ModCtrl)
	right := h.open(t)
	require.Equal(t, layout.Pos{Col: 1}, h.d.Layout().Focus())

	h.tap(t, terminal.CodeF, 0)
	assert.Equal(t, right, h.d.Fullscreen())
	assert.Equal(t, [2]int{38, 8}, right.resizes[len(right.resizes)-1])
	assert.Equal(t, "│hello", h.sim.CaptureRegion(0, 1, 6, 1))

	updates := len(left.inputs)
	h.cycle(t)
	assert.Equal(t, updates, len(left.inputs), "hidden occupants are not updated")

	h.tap(t, terminal.CodeF, 0)
	assert.Nil(t, h.d.Fullscreen())
	w := h.d.Layout().Tiles()[1].Interior.Width
	assert.Equal(t, [2]int{w, 8}, right.resizes[len(right.resizes)-1])
}

func TestDesktop_PickUpPutDown(t *testing.T) {
	h := newHarness(t, 40, 10, Config{})
	h.cycle(t)
	f := h.open(t)
	h.tap(t, terminal.CodeL, terminal.ModCtrl)
	h.tap(t, terminal.CodeD, terminal.ModCtrl)
	h.tap(t, terminal.CodeLeft, 0)

	h.tap(t, terminal.CodeX, 0)
	assert.Equal(t, f, h.d.Layout().Held())
	assert.Contains(t, h.line(9), "holding fake")

	h.tap(t, terminal.CodeRight, 0)
	h.tap(t, terminal.CodeV, 0)
	assert.Nil(t, h.d.Layout().Held())
	pos, ok := h.d.Layout().Find(f)
	require.True(t, ok)
	assert.Equal(t, layout.Pos{Col: 1}, pos)
	assert.Zero(t, f.closed)
}

func TestDesktop_MouseFocus(t *testing.T) {
	h := newHarness(t, 40, 10, Config{})
	h.cycle(t)
	h.tap(t, terminal.CodeL, terminal.ModCtrl)
	h.tap(t, terminal.CodeD, terminal.ModCtrl)
	h.tap(t, terminal.CodeLeft, 0)
	require.Equal(t, layout.Pos{}, h.d.Layout().Focus())

	require.True(t, h.p.TrySend(terminal.MouseEvent{X: 35, Y: 4, Button: terminal.MouseLeft, Action: terminal.MousePress}))
	h.cycle(t)
	assert.Equal(t, layout.Pos{Col: 1}, h.d.Layout().Focus())
}

func TestDesktop_Startup(t *testing.T) {
	cfg := Config{
		Layout:  []layout.RowSpec{{Height: 5}, {}},
		Startup: []string{"fake", "help"},
	}
	h := newHarness(t, 30, 12, cfg)
	h.cycle(t)

	require.Len(t, h.made, 1)
	assert.Equal(t, h.made[0], h.d.Layout().At(layout.Pos{}))
	help := h.d.Layout().At(layout.Pos{Row: 1})
	require.NotNil(t, help)
	assert.Equal(t, "help", help.Name())
	assert.Equal(t, layout.Pos{}, h.d.Layout().Focus())
	assert.True(t, h.sim.ContainsText("line one"))
}

func TestNew_Errors(t *testing.T) {
	s := sim.New(20, 6)
	require.NoError(t, s.Init())
	t.Cleanup(s.Fini)

	_, err := New(s, widget.NewRegistry(), nil, Config{Startup: []string{"nope"}})
	assert.ErrorIs(t, err, widget.ErrUnknownApp)

	_, err = New(s, nil, nil, Config{Keys: map[string]string{"quit": ""}})
	assert.ErrorIs(t, err, input.ErrEmptyToken)

	_, err = New(s, nil, nil, Config{Layout: []layout.RowSpec{{Height: 0}, {Height: 3}}})
	assert.ErrorIs(t, err, layout.ErrInvalidSpec)

	_, err = New(nil, nil, nil, Config{})
	assert.Error(t, err)
}

func TestDesktop_Reload(t *testing.T) {
	h := newHarness(t, 20, 6, Config{})
	h.cycle(t)

	h.d.Reload(Settings{Keys: map[string]string{"quit": "bogus+key"}})
	h.d.Reload(Settings{Keys: map[string]string{"quit": "ctrl+X"}, Repeat: input.RepeatPolicy{Delay: 3, Every: 1}})
	h.cycle(t)
	assert.Equal(t, input.RepeatPolicy{Delay: 3, Every: 1}, h.d.repeat)

	h.tap(t, terminal.CodeQ, terminal.ModCtrl)
	assert.False(t, h.d.Quit())
	h.tap(t, terminal.CodeX, terminal.ModCtrl)
	assert.True(t, h.d.Quit())
}

func TestDesktop_RejectedReloadKeepsBindings(t *testing.T) {
	h := newHarness(t, 20, 6, Config{})
	h.d.Reload(Settings{Keys: map[string]string{"quit": "bogus+key"}})
	h.cycle(t)

	h.tap(t, terminal.CodeQ, terminal.ModCtrl)
	assert.True(t, h.d.Quit())
}

type countingBackend struct {
	backend.Backend
	presents int
	full     int
}

func (c *countingBackend) Present(r *compositor.Renderer, full bool) error {
	c.presents++
	if full {
		c.full++
	}
	return c.Backend.Present(r, full)
}

func TestDesktop_IdleCyclesPresentNothing(t *testing.T) {
	s := sim.New(20, 6)
	require.NoError(t, s.Init())
	t.Cleanup(s.Fini)
	cb := &countingBackend{Backend: s}

	d, err := New(cb, nil, nil, Config{ForceRedrawEvery: 5})
	require.NoError(t, err)
	for range 4 {
		require.NoError(t, d.Cycle())
	}
	assert.Equal(t, 1, cb.presents)
	assert.Equal(t, 1, cb.full)

	require.NoError(t, d.Cycle())
	assert.Equal(t, 2, cb.presents)
	assert.Equal(t, 2, cb.full)
}

func TestDesktop_RunQuits(t *testing.T) {
	h := newHarness(t, 20, 6, Config{FrameRate: 100})
	f := h.open(t)
	require.True(t, h.p.TrySend(terminal.KeyTransition{Code: terminal.CodeQ, State: terminal.KeyPressed, Mods: terminal.ModCtrl}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.d.Run(ctx))
	assert.Equal(t, 1, f.closed)
	assert.Empty(t, h.d.Layout().Occupants())
}

func TestDesktop_RunCanceled(t *testing.T) {
	h := newHarness(t, 20, 6, Config{FrameRate: 100})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.d.Run(ctx), context.Canceled)
}
