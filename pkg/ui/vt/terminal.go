package vt

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/odvcencio/tilewm/pkg/ui/compositor"
	"github.com/odvcencio/tilewm/pkg/ui/widget"
)

const (
	defaultQueueSize  = 64
	defaultReadBuffer = 4096
	closeTimeout      = 100 * time.Millisecond
)

type options struct {
	logger    *slog.Logger
	queueSize int
	readBuf   int
	name      string
}

// Option configures a Terminal.
type Option func(*options)

// WithLogger sets the logger for I/O failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithQueueSize bounds the number of output chunks and input writes that
// may wait between cycles.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithReadBuffer sets the size of a single read from the child.
func WithReadBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readBuf = n
		}
	}
}

// WithName sets the registry name reported by the occupant.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// Terminal is an occupant that runs a child process on a pseudo-terminal
// and shows its output.
//
// Reads and writes happen on background goroutines. Update never blocks:
// it hands focused input to the writer and applies whatever output has
// arrived since the previous cycle. When the output stream ends the
// terminal becomes defunct; it keeps its last screen but ignores input.
type Terminal struct {
	widget.Base

	proc   Process
	screen *Screen
	interp *Interpreter
	logger *slog.Logger

	out    <-chan []byte
	in     chan []byte
	done   chan struct{}
	exited chan struct{}

	exitErr   error
	defunct   bool
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

var _ widget.Occupant = (*Terminal)(nil)

// New attaches a Terminal of width x height to a running process.
func New(proc Process, width, height int, opts ...Option) *Terminal {
	o := options{
		logger:    slog.New(slog.DiscardHandler),
		queueSize: defaultQueueSize,
		readBuf:   defaultReadBuffer,
		name:      "terminal",
	}
	for _, opt := range opts {
		opt(&o)
	}

	screen := NewScreen(width, height)
	out := make(chan []byte, o.queueSize)
	t := &Terminal{
		Base:   widget.NewBase(o.name),
		proc:   proc,
		screen: screen,
		interp: NewInterpreter(screen),
		logger: o.logger.With("component", "vt", "pid", proc.Pid()),
		out:    out,
		in:     make(chan []byte, o.queueSize),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	t.Base.Resize(screen.Size())

	go t.readLoop(out, o.readBuf)
	go t.writeLoop()
	return t
}

// Spawn starts cmd on a new pseudo-terminal and attaches a Terminal to it.
func Spawn(cmd Command, width, height int, opts ...Option) (*Terminal, error) {
	width, height = max(width, 1), max(height, 1)
	proc, err := StartProcess(cmd, width, height)
	if err != nil {
		return nil, err
	}
	return New(proc, width, height, opts...), nil
}

// Factory returns a registry factory that spawns cmd.
func Factory(cmd Command, opts ...Option) widget.Factory {
	return func(width, height int) (widget.Occupant, error) {
		return Spawn(cmd, width, height, opts...)
	}
}

func (t *Terminal) readLoop(out chan<- []byte, size int) {
	buf := make([]byte, size)
	for {
		n, err := t.proc.Read(buf)
		if n > 0 {
			chunk := bytes.Clone(buf[:n])
			select {
			case out <- chunk:
			case <-t.done:
			}
		}
		if err != nil || n == 0 {
			break
		}
	}
	close(out)
	t.exitErr = t.proc.Wait()
	close(t.exited)
}

func (t *Terminal) writeLoop() {
	for {
		select {
		case <-t.done:
			return
		case b := <-t.in:
			if _, err := t.proc.Write(b); err != nil {
				t.logger.Debug("terminal write failed", "error", err)
			}
		}
	}
}

// Screen returns the emulator screen.
func (t *Terminal) Screen() *Screen {
	return t.screen
}

// Pid returns the child's process ID.
func (t *Terminal) Pid() int {
	return t.proc.Pid()
}

// Defunct reports whether the child's output stream has ended.
func (t *Terminal) Defunct() bool {
	return t.defunct
}

// Exited is closed once the child has been reaped.
func (t *Terminal) Exited() <-chan struct{} {
	return t.exited
}

// ExitErr returns the child's exit status once Exited is closed.
func (t *Terminal) ExitErr() error {
	select {
	case <-t.exited:
		return t.exitErr
	default:
		return nil
	}
}

// Hints implements widget.Occupant.
func (t *Terminal) Hints() widget.Hints {
	return widget.Hints{
		MinWidth:   2,
		MinHeight:  1,
		PrefWidth:  80,
		PrefHeight: 24,
		Flags:      widget.FlagBackground,
	}
}

// Update forwards focused input to the child and applies pending output.
func (t *Terminal) Update(in widget.Input) bool {
	if t.closed {
		return false
	}
	if in.Focused && !t.defunct && len(in.Raw) > 0 {
		if err := t.Send(in.Raw); err != nil {
			t.logger.Warn("terminal input dropped", "bytes", len(in.Raw), "error", err)
		}
	}

	changed := t.drain()
	if t.NeedsRender() {
		t.ClearInvalidation()
		changed = true
	}
	return changed
}

// Send queues b for the child without blocking.
func (t *Terminal) Send(b []byte) error {
	switch {
	case t.closed:
		return ErrClosed
	case t.defunct:
		return ErrDefunct
	}
	select {
	case t.in <- bytes.Clone(b):
		return nil
	default:
		return ErrInputFull
	}
}

// drain applies at most one queue's worth of output so a chatty child
// cannot stall the cycle.
func (t *Terminal) drain() bool {
	changed := false
	for range cap(t.out) + 1 {
		select {
		case chunk, ok := <-t.out:
			if !ok {
				t.out = nil
				t.defunct = true
				t.logger.Info("terminal child output ended")
				return true
			}
			t.interp.Feed(chunk)
			changed = true
		default:
			return changed
		}
	}
	return changed
}

// Resize resizes the screen and tells the child about the new size.
func (t *Terminal) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if w, h := t.screen.Size(); w == width && h == height {
		return
	}
	t.Base.Resize(width, height)
	if !t.defunct && !t.closed {
		if err := t.proc.Resize(width, height); err != nil {
			t.logger.Warn("terminal resize failed", "error", err)
		}
		if sigResize != nil {
			if err := t.proc.Signal(sigResize); err != nil && !errors.Is(err, os.ErrProcessDone) {
				t.logger.Debug("terminal resize signal failed", "error", err)
			}
		}
	}
	t.screen.Resize(width, height)
}

// Draw paints the screen. The cursor is shown in reverse video while the
// tile has focus and the child is alive.
func (t *Terminal) Draw(c compositor.Canvas, focused bool) {
	width, height := t.screen.Size()
	_, ch := c.Size()
	for y := range min(height, ch) {
		if line := t.screen.Line(y); line != "" {
			c.Write(0, y, line+compositor.ANSIReset)
		}
	}
	if !focused || t.defunct {
		return
	}

	x, y := t.screen.Cursor()
	x = min(x, width-1)
	cell := t.screen.Cell(x, y)
	if cell.Continuation() && x > 0 {
		x--
		cell = t.screen.Cell(x, y)
	}
	c.Write(x, y, cell.Prefix+compositor.Reverse(cell.Glyph))
}

// Close hangs up on the child and releases the pseudo-terminal. It waits
// briefly for the child to be reaped.
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() {
		t.closed = true
		close(t.done)
		if sigHangup != nil {
			if err := t.proc.Signal(sigHangup); err != nil && !errors.Is(err, os.ErrProcessDone) {
				t.logger.Debug("terminal hangup failed", "error", err)
			}
		}
		t.closeErr = t.proc.Close()
		select {
		case <-t.exited:
		case <-time.After(closeTimeout):
			t.logger.Warn("terminal child still running after close")
		}
	})
	return t.closeErr
}
