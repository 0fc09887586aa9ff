// Package tty provides a Backend that drives the controlling terminal
// directly: raw mode through x/term, output as the renderer's ANSI diff,
// input decoded from the byte stream.
package tty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/odvcencio/tilewm/pkg/ui/backend"
	"github.com/odvcencio/tilewm/pkg/ui/compositor"
	"github.com/odvcencio/tilewm/pkg/ui/input"
)

const (
	fallbackWidth  = 80
	fallbackHeight = 24
	readSize       = 1024
)

// Options select what Init changes on the terminal.
type Options struct {
	// AltScreen switches to the alternate screen for the session.
	AltScreen bool
	// HideCursor hides the hardware cursor for the session.
	HideCursor bool
	// Mouse enables SGR mouse reporting.
	Mouse  bool
	Logger *slog.Logger
}

// Backend implements backend.Backend on a terminal file pair.
type Backend struct {
	in, out *os.File
	opts    Options
	logger  *slog.Logger
	profile termenv.Profile
	state   *term.State
	decoder input.Decoder

	width, height int
}

// New creates a backend reading keys from in and painting to out.
func New(in, out *os.File, opts Options) *Backend {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{
		in:      in,
		out:     out,
		opts:    opts,
		logger:  logger.With("component", "tty"),
		profile: termenv.NewOutput(out).EnvColorProfile(),
		width:   fallbackWidth,
		height:  fallbackHeight,
	}
}

// Init puts the input terminal in raw mode and applies the session options.
func (b *Backend) Init() error {
	state, err := term.MakeRaw(int(b.in.Fd()))
	if err != nil {
		return fmt.Errorf("make raw: %w", err)
	}
	b.state = state

	var seq strings.Builder
	if b.opts.AltScreen {
		seq.WriteString(compositor.ANSIAltScreen + compositor.ANSIClearScreen + compositor.ANSICursorHome)
	}
	if b.opts.HideCursor {
		seq.WriteString(compositor.ANSICursorHide)
	}
	if b.opts.Mouse {
		seq.WriteString(compositor.ANSIMouseOn)
	}
	return b.write(seq.String())
}

// Fini undoes Init.
func (b *Backend) Fini() {
	var seq strings.Builder
	if b.opts.Mouse {
		seq.WriteString(compositor.ANSIMouseOff)
	}
	if b.opts.HideCursor {
		seq.WriteString(compositor.ANSICursorShow)
	}
	if b.opts.AltScreen {
		seq.WriteString(compositor.ANSIMainScreen)
	}
	if err := b.write(seq.String()); err != nil {
		b.logger.Warn("terminal restore write failed", "error", err)
	}
	if b.state != nil {
		if err := term.Restore(int(b.in.Fd()), b.state); err != nil {
			b.logger.Warn("terminal restore failed", "error", err)
		}
		b.state = nil
	}
}

func (b *Backend) write(s string) error {
	if s == "" {
		return nil
	}
	_, err := io.WriteString(b.out, s)
	return err
}

// Size returns the terminal dimensions, or the last known ones when the
// query fails.
func (b *Backend) Size() (width, height int) {
	if w, h, err := sizeOf(b.out); err == nil {
		b.width, b.height = w, h
	}
	return b.width, b.height
}

func sizeOf(f *os.File) (width, height int, err error) {
	width, height, err = term.GetSize(int(f.Fd()))
	if err == nil && (width <= 0 || height <= 0) {
		err = fmt.Errorf("terminal reports size %dx%d", width, height)
	}
	return width, height, err
}

// Profile reports the color profile detected from the environment.
func (b *Backend) Profile() termenv.Profile {
	return b.profile
}

// Present writes the renderer's diff, or a full repaint, to the terminal.
func (b *Backend) Present(r *compositor.Renderer, full bool) error {
	w, h := b.Size()
	if _, err := r.Render(b.out, w, h, full); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// Run decodes input bytes into p until ctx ends or the input closes. The
// blocked read cannot be interrupted; its goroutine ends with the process
// or with the next byte.
func (b *Backend) Run(ctx context.Context, p *input.Pipeline) error {
	stop := watchResize(ctx, b, p)
	defer stop()

	type chunk struct {
		data []byte
		err  error
	}
	chunks := make(chan chunk, 16)
	go func() {
		buf := make([]byte, readSize)
		for {
			n, err := b.in.Read(buf)
			data := append([]byte(nil), buf[:n]...)
			select {
			case chunks <- chunk{data: data, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-chunks:
			for _, ev := range b.decoder.Decode(c.data) {
				if err := p.Send(ctx, ev); err != nil {
					return err
				}
			}
			if errors.Is(c.err, io.EOF) {
				return nil
			}
			if c.err != nil {
				return fmt.Errorf("read input: %w", c.err)
			}
		}
	}
}

var _ backend.Backend = (*Backend)(nil)
