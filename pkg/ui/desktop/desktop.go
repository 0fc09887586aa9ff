// Package desktop is the compositor root. It owns the tiling layout, the
// renderer and the input pipeline, and runs the cooperative cycle that
// polls input, updates occupants, draws the frame and presents it.
//
// Everything in a Desktop belongs to the goroutine calling Cycle or Run.
// Other goroutines talk to it only through the input pipeline and Reload.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/odvcencio/tilewm/pkg/ui/backend"
	"github.com/odvcencio/tilewm/pkg/ui/compositor"
	"github.com/odvcencio/tilewm/pkg/ui/input"
	"github.com/odvcencio/tilewm/pkg/ui/layout"
	"github.com/odvcencio/tilewm/pkg/ui/terminal"
	"github.com/odvcencio/tilewm/pkg/ui/widget"
)

// DefaultFrameRate is the number of cycles per second Run aims for.
const DefaultFrameRate = 30

// Config configures a Desktop.
type Config struct {
	// FrameRate is the number of cycles per second.
	FrameRate int
	// ForceRedrawEvery repaints every row each n cycles. Zero disables it.
	ForceRedrawEvery int
	Repeat           input.RepeatPolicy
	// Keys overrides default bindings, keyed by action name.
	Keys map[string]string
	// Layout is the initial tiling. Empty means one tile.
	Layout []layout.RowSpec
	// Startup names registry apps placed into the tiles in order.
	Startup []string
}

// Settings are the parts of the configuration applied without a restart.
type Settings struct {
	Keys   map[string]string
	Repeat input.RepeatPolicy
}

// Option configures a Desktop.
type Option func(*Desktop)

// WithLogger sets the desktop logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Desktop) {
		if l != nil {
			d.logger = l
		}
	}
}

type size struct{ w, h int }

type defuncter interface {
	Defunct() bool
}

type repeater interface {
	SetRepeat(input.RepeatPolicy)
}

// Desktop composes occupants into tiles on one backend.
type Desktop struct {
	backend  backend.Backend
	registry *widget.Registry
	pipeline *input.Pipeline
	renderer *compositor.Renderer
	layout   *layout.Layout[widget.Occupant]
	logger   *slog.Logger

	bindings  Bindings
	repeat    input.RepeatPolicy
	reload    chan Settings
	highlight func(string) string

	mode       Mode
	chooser    chooser
	fullscreen widget.Occupant
	sizes      map[string]size
	defunct    map[string]bool
	startup    []string
	notice     string

	interval   time.Duration
	forceEvery int
	cycles     uint64
	forceFull  bool
	dirty      bool
	quit       bool
	dropped    int64

	slowFrame rate.Sometimes
	dropWarn  rate.Sometimes
}

// New creates a desktop presenting to b. The backend must already be
// initialized so its size is known.
func New(b backend.Backend, reg *widget.Registry, p *input.Pipeline, cfg Config, opts ...Option) (*Desktop, error) {
	if b == nil {
		return nil, errors.New("desktop: backend is required")
	}
	if reg == nil {
		reg = widget.NewRegistry()
	}
	if p == nil {
		p = input.NewPipeline(input.DefaultQueueSize)
	}

	bindings, err := DefaultBindings().With(cfg.Keys)
	if err != nil {
		return nil, err
	}
	w, h := b.Size()
	l, err := layout.FromSpec[widget.Occupant](w, h, cfg.Layout)
	if err != nil {
		return nil, err
	}
	for _, name := range cfg.Startup {
		if !reg.Has(name) {
			return nil, fmt.Errorf("startup app %q: %w", name, widget.ErrUnknownApp)
		}
	}

	fps := cfg.FrameRate
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	d := &Desktop{
		backend:    b,
		registry:   reg,
		pipeline:   p,
		renderer:   compositor.NewRenderer(),
		layout:     l,
		logger:     slog.New(slog.DiscardHandler),
		bindings:   bindings,
		repeat:     repeatOrDefault(cfg.Repeat),
		reload:     make(chan Settings, 1),
		highlight:  newHighlighter(b.Profile()),
		mode:       ModeApps,
		sizes:      make(map[string]size),
		defunct:    make(map[string]bool),
		startup:    cfg.Startup,
		interval:   time.Second / time.Duration(fps),
		forceEvery: max(cfg.ForceRedrawEvery, 0),
		forceFull:  true,
		dirty:      true,
		slowFrame:  rate.Sometimes{Interval: 10 * time.Second},
		dropWarn:   rate.Sometimes{Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "desktop")
	return d, nil
}

func repeatOrDefault(p input.RepeatPolicy) input.RepeatPolicy {
	if p == (input.RepeatPolicy{}) {
		return input.DefaultRepeat()
	}
	return p
}

// Layout returns the tiling.
func (d *Desktop) Layout() *layout.Layout[widget.Occupant] {
	return d.layout
}

// Mode returns the current key mode.
func (d *Desktop) Mode() Mode {
	return d.mode
}

// Bindings returns the active key table.
func (d *Desktop) Bindings() Bindings {
	return d.bindings
}

// Renderer returns the renderer whose frames are presented.
func (d *Desktop) Renderer() *compositor.Renderer {
	return d.renderer
}

// Fullscreen returns the fullscreen occupant, if any.
func (d *Desktop) Fullscreen() widget.Occupant {
	return d.fullscreen
}

// Quit reports whether the quit binding fired.
func (d *Desktop) Quit() bool {
	return d.quit
}

// Reload hands new settings to the desktop. They take effect at the start
// of the next cycle; a newer call replaces settings not yet applied. Safe
// to call from any goroutine.
func (d *Desktop) Reload(s Settings) {
	for {
		select {
		case d.reload <- s:
			return
		default:
		}
		select {
		case <-d.reload:
		default:
		}
	}
}

func (d *Desktop) applyReload() {
	var s Settings
	select {
	case s = <-d.reload:
	default:
		return
	}

	d.repeat = repeatOrDefault(s.Repeat)
	for _, occ := range d.allOccupants() {
		if r, ok := occ.(repeater); ok {
			r.SetRepeat(d.repeat)
		}
	}
	bindings, err := DefaultBindings().With(s.Keys)
	if err != nil {
		d.logger.Warn("key overrides rejected", "error", err)
		return
	}
	d.bindings = bindings
	d.dirty = true
	d.logger.Info("settings reloaded", "repeat_delay", d.repeat.Delay, "repeat_every", d.repeat.Every)
}

// Run cycles at the configured frame rate until ctx ends or the quit
// binding fires. Every occupant is closed before it returns.
func (d *Desktop) Run(ctx context.Context) error {
	defer d.Close()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("desktop started", "interval", d.interval)
	for {
		if err := d.Cycle(); err != nil {
			return err
		}
		if d.quit {
			d.logger.Info("desktop quit")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Cycle runs one compositor pass: query the size, poll input, apply
// bindings, propagate tile sizes, update occupants, draw and present.
// Nothing is presented when no input arrived and no occupant changed.
func (d *Desktop) Cycle() error {
	start := time.Now()
	d.applyReload()

	w, h := d.backend.Size()
	if d.layout.Resize(w, h) {
		d.forceFull = true
	}

	snap := d.pipeline.Poll()
	if snap.Resize != nil {
		d.forceFull = true
	}
	if !snap.Empty() {
		d.dirty = true
	}
	d.checkDropped()

	if len(d.startup) > 0 {
		d.openStartup()
	}

	keys, raw := d.dispatch(snap)
	d.handleMouse(snap.Mouse)
	if d.fullscreen != nil {
		if _, ok := d.layout.Find(d.fullscreen); !ok {
			d.fullscreen = nil
			d.forceFull = true
		}
	}

	tiles := d.layout.Tiles()
	d.propagateSizes(tiles)
	d.updateOccupants(tiles, keys, raw)

	d.cycles++
	if d.forceEvery > 0 && d.cycles%uint64(d.forceEvery) == 0 {
		d.forceFull = true
	}
	full := d.forceFull
	if !d.dirty && !full {
		return nil
	}
	d.dirty, d.forceFull = false, false

	d.draw(tiles)
	if err := d.backend.Present(d.renderer, full); err != nil {
		return fmt.Errorf("present frame: %w", err)
	}

	elapsed := time.Since(start)
	recordFrame(d.renderer.Stats(), elapsed.Seconds())
	if elapsed > d.interval {
		d.slowFrame.Do(func() {
			d.logger.Warn("slow frame", "elapsed", elapsed, "budget", d.interval)
		})
	}
	return nil
}

func (d *Desktop) checkDropped() {
	n := d.pipeline.Dropped()
	if n == d.dropped {
		return
	}
	lost := n - d.dropped
	d.dropped = n
	metricInputDropped.Set(float64(n))
	d.dropWarn.Do(func() {
		d.logger.Warn("input queue overflowed", "dropped", lost, "total", n)
	})
}

func (d *Desktop) openStartup() {
	names := d.startup
	d.startup = nil

	tiles := d.layout.Tiles()
	focus := d.layout.Focus()
	for i, name := range names {
		if i >= len(tiles) {
			d.logger.Warn("startup apps exceed tiles", "apps", len(names), "tiles", len(tiles))
			break
		}
		d.layout.SetFocus(tiles[i].Pos)
		if err := d.Open(name); err != nil {
			d.logger.Warn("startup app failed", "app", name, "error", err)
		}
	}
	d.layout.SetFocus(focus)
}

// dispatch runs the bindings for every live key, in arrival order, and
// returns what the focused occupant should see. A cycle in which any bound
// key was down passes no raw bytes.
func (d *Desktop) dispatch(snap input.Snapshot) ([]input.KeyEvent, []byte) {
	var pass []input.KeyEvent
	consumed := false
	for _, k := range snap.Keys {
		b, ok := d.bindings.Lookup(d.mode, k)
		if !ok {
			if d.mode == ModeApps {
				pass = append(pass, k)
			}
			continue
		}
		if k.Down() {
			consumed = true
		}
		fire := k.Pressed()
		if b.Repeat {
			fire = d.repeat.Fires(k)
		}
		if fire {
			d.do(b.Action)
		}
	}

	if d.mode != ModeApps {
		return nil, nil
	}
	if consumed {
		return pass, nil
	}
	if len(snap.Raw) > 0 {
		return pass, snap.Raw
	}
	// Sources without a byte stream (evdev) are encoded here.
	var raw []byte
	for _, k := range pass {
		if d.repeat.Fires(k) {
			raw = append(raw, input.Encode(k)...)
		}
	}
	return pass, raw
}

func (d *Desktop) do(a Action) {
	d.dirty = true
	d.notice = ""

	switch a {
	case ActionQuit:
		d.quit = true
	case ActionToggleLayout:
		if d.mode == ModeLayout {
			d.mode = ModeApps
		} else {
			d.mode = ModeLayout
		}

	case ActionRowBefore:
		d.edited(a, d.layout.SplitRow(layout.Before))
	case ActionRowAfter:
		d.edited(a, d.layout.SplitRow(layout.After))
	case ActionColumnBefore:
		d.edited(a, d.layout.SplitColumn(layout.Before))
	case ActionColumnAfter:
		d.edited(a, d.layout.SplitColumn(layout.After))
	case ActionDeleteRowAbove:
		evicted, ok := d.layout.DeleteRow(layout.Before)
		d.deleted(a, evicted, ok)
	case ActionDeleteRowBelow:
		evicted, ok := d.layout.DeleteRow(layout.After)
		d.deleted(a, evicted, ok)
	case ActionDeleteColumnLeft:
		evicted, ok := d.layout.DeleteColumn(layout.Before)
		d.deleted(a, evicted, ok)
	case ActionDeleteColumnRight:
		evicted, ok := d.layout.DeleteColumn(layout.After)
		d.deleted(a, evicted, ok)

	case ActionFocusUp:
		d.layout.MoveFocus(layout.Up)
	case ActionFocusDown:
		d.layout.MoveFocus(layout.Down)
	case ActionFocusLeft:
		d.layout.MoveFocus(layout.Left)
	case ActionFocusRight:
		d.layout.MoveFocus(layout.Right)

	case ActionShrinkHeight:
		d.edited(a, d.layout.ResizeRow(-1))
	case ActionGrowHeight:
		d.edited(a, d.layout.ResizeRow(1))
	case ActionShrinkWidth:
		d.edited(a, d.layout.ResizeColumn(-1))
	case ActionGrowWidth:
		d.edited(a, d.layout.ResizeColumn(1))

	case ActionPickUp:
		d.layout.PickUp()
	case ActionPutDown:
		if evicted, ok := d.layout.PutDown(); ok {
			d.evict(evicted)
		}
	case ActionClose:
		d.evict(d.layout.Remove())
	case ActionChoose:
		d.chooser.open(d.registry.Names())
		d.mode = ModeChoose
	case ActionFullscreen:
		d.toggleFullscreen()

	case ActionChooserUp:
		d.chooser.move(-1)
	case ActionChooserDown:
		d.chooser.move(1)
	case ActionChooserPlace:
		d.mode = ModeApps
		if name, ok := d.chooser.current(); ok {
			if err := d.Open(name); err != nil {
				d.logger.Warn("open app failed", "app", name, "error", err)
				d.notice = "cannot open " + name
				d.mode = ModeLayout
			}
		}
	case ActionChooserCancel:
		d.mode = ModeLayout
	}
}

func (d *Desktop) edited(a Action, ok bool) {
	if !ok {
		recordRefused(a)
		d.logger.Debug("layout edit refused", "action", a)
	}
}

func (d *Desktop) deleted(a Action, evicted []widget.Occupant, ok bool) {
	d.edited(a, ok)
	d.evict(evicted...)
}

func (d *Desktop) toggleFullscreen() {
	d.forceFull = true
	if d.fullscreen != nil {
		d.fullscreen = nil
		return
	}
	d.fullscreen = d.layout.Focused()
}

func (d *Desktop) handleMouse(events []terminal.MouseEvent) {
	if d.mode == ModeChoose || d.fullscreen != nil {
		return
	}
	for _, m := range events {
		if m.Action != terminal.MousePress || m.Button != terminal.MouseLeft {
			continue
		}
		if pos, ok := d.layout.TileAt(m.X, m.Y); ok {
			d.layout.SetFocus(pos)
			d.dirty = true
		}
	}
}

// Open creates the registry app name in the focused tile. The previous
// occupant is closed.
func (d *Desktop) Open(name string) error {
	r := d.focusedInterior()
	occ, err := d.registry.New(name, r.Width, r.Height)
	if err != nil {
		return err
	}
	d.sizes[occ.ID()] = size{r.Width, r.Height}
	if rp, ok := occ.(repeater); ok {
		rp.SetRepeat(d.repeat)
	}
	metricOccupants.Inc()
	d.logger.Info("occupant opened", "app", name, "id", occ.ID(), "width", r.Width, "height", r.Height)

	d.evict(d.layout.Place(occ))
	d.dirty = true
	return nil
}

func (d *Desktop) focusedInterior() layout.Rect {
	for _, t := range d.layout.Tiles() {
		if t.Focused {
			return d.interior(t)
		}
	}
	return layout.Rect{}
}

// interior is where t's occupant is drawn: its tile, or the whole screen
// inside the outer border when it is fullscreen.
func (d *Desktop) interior(t layout.Tile[widget.Occupant]) layout.Rect {
	if t.Occupant != nil && t.Occupant == d.fullscreen {
		w, h := d.layout.Size()
		return layout.Rect{X: 1, Y: 1, Width: max(w-2, 0), Height: max(h-2, 0)}
	}
	return t.Interior
}

// evict closes occupants removed from the layout.
func (d *Desktop) evict(occs ...widget.Occupant) {
	for _, occ := range occs {
		if occ == nil {
			continue
		}
		if occ == d.fullscreen {
			d.fullscreen = nil
			d.forceFull = true
		}
		delete(d.sizes, occ.ID())
		delete(d.defunct, occ.ID())
		metricOccupants.Dec()
		if err := occ.Close(); err != nil {
			d.logger.Warn("occupant close failed", "app", occ.Name(), "id", occ.ID(), "error", err)
			continue
		}
		d.logger.Info("occupant closed", "app", occ.Name(), "id", occ.ID())
	}
}

func (d *Desktop) allOccupants() []widget.Occupant {
	occs := d.layout.Occupants()
	if held := d.layout.Held(); held != nil {
		occs = append(occs, held)
	}
	return occs
}

// Close closes every placed and held occupant and empties the layout.
func (d *Desktop) Close() {
	occs := d.allOccupants()
	w, h := d.layout.Size()
	d.layout = layout.New[widget.Occupant](w, h)
	d.evict(occs...)
}

// propagateSizes resizes every occupant whose interior changed. An
// occupant that does not fit keeps its old size and is not drawn.
func (d *Desktop) propagateSizes(tiles []layout.Tile[widget.Occupant]) {
	for _, t := range tiles {
		occ := t.Occupant
		if occ == nil {
			continue
		}
		r := d.interior(t)
		if !occ.Hints().Fits(r.Width, r.Height) {
			continue
		}
		sz := size{r.Width, r.Height}
		if d.sizes[occ.ID()] == sz {
			continue
		}
		occ.Resize(r.Width, r.Height)
		d.sizes[occ.ID()] = sz
		d.dirty = true
	}
}

func (d *Desktop) active() widget.Occupant {
	if d.fullscreen != nil {
		return d.fullscreen
	}
	return d.layout.Focused()
}

func (d *Desktop) updateOccupants(tiles []layout.Tile[widget.Occupant], keys []input.KeyEvent, raw []byte) {
	active := d.active()
	for _, t := range tiles {
		occ := t.Occupant
		if occ == nil {
			continue
		}
		flags := occ.Hints().Flags
		focused := occ == active
		if d.fullscreen != nil && !focused && !flags.Has(widget.FlagRunWhileFull) {
			continue
		}
		if !focused && !flags.Has(widget.FlagBackground) {
			continue
		}

		in := widget.Input{Focused: focused && d.mode == ModeApps}
		if in.Focused {
			in.Keys, in.Raw = keys, raw
		}
		if occ.Update(in) {
			d.dirty = true
		}
		d.noteDefunct(occ)
	}

	if held := d.layout.Held(); held != nil && held.Hints().Flags.Has(widget.FlagBackground) {
		held.Update(widget.Input{})
		d.noteDefunct(held)
	}
}

func (d *Desktop) noteDefunct(occ widget.Occupant) {
	df, ok := occ.(defuncter)
	if !ok || !df.Defunct() || d.defunct[occ.ID()] {
		return
	}
	d.defunct[occ.ID()] = true
	d.dirty = true
	recordDefunct()
	d.logger.Info("occupant defunct", "app", occ.Name(), "id", occ.ID())
}

func (d *Desktop) draw(tiles []layout.Tile[widget.Occupant]) {
	f := d.renderer.Begin()
	w, h := d.layout.Size()

	if d.fullscreen != nil {
		grid := newBorderGrid(layout.New[widget.Occupant](w, h).Borders(), w)
		grid.draw(f)
		frame := layout.Rect{Width: w, Height: h}
		label(f, frame, d.tileLabel(d.fullscreen))
		d.drawOccupant(f, d.interior(layout.Tile[widget.Occupant]{Occupant: d.fullscreen}), d.fullscreen, d.mode == ModeApps)
		statusLine(f, w, h, d.status())
		return
	}

	var focused layout.Tile[widget.Occupant]
	for _, t := range tiles {
		if t.Focused {
			focused = t
		}
	}
	grid := newBorderGrid(d.layout.Borders(), w)
	grid.draw(f)
	if d.mode != ModeApps {
		grid.highlight(f, focused.Frame, h, d.highlight)
	}
	for _, t := range tiles {
		if t.Occupant == nil {
			continue
		}
		label(f, t.Frame, d.tileLabel(t.Occupant))
		d.drawOccupant(f, t.Interior, t.Occupant, t.Focused && d.mode == ModeApps)
	}
	if d.mode == ModeChoose {
		r := focused.Interior
		if r.Width < 4 || r.Height < 2 {
			r = layout.Rect{X: 1, Y: 1, Width: max(w-2, 0), Height: max(h-2, 0)}
		}
		d.chooser.draw(f.Region(r.X, r.Y, r.Width, r.Height))
	}
	statusLine(f, w, h, d.status())
}

func (d *Desktop) drawOccupant(f *compositor.Frame, r layout.Rect, occ widget.Occupant, focused bool) {
	if r.Empty() {
		return
	}
	region := f.Region(r.X, r.Y, r.Width, r.Height)
	if !occ.Hints().Fits(r.Width, r.Height) {
		region.Write(0, 0, placeholder)
		return
	}
	occ.Draw(region, focused)
}

func (d *Desktop) tileLabel(occ widget.Occupant) string {
	if d.defunct[occ.ID()] {
		return exitedLabel
	}
	return " " + occ.Name() + " "
}

func (d *Desktop) status() string {
	s := " " + d.mode.String() + " "
	if held := d.layout.Held(); held != nil {
		s += " holding " + held.Name() + " "
	}
	if d.notice != "" {
		s += " " + d.notice + " "
	}
	return s
}
