// Package backend defines the host terminal the desktop presents to.
// This abstraction allows swapping between a raw TTY, tcell and a
// simulation screen for tests.
package backend

import (
	"context"

	"github.com/muesli/termenv"

	"github.com/odvcencio/tilewm/pkg/ui/compositor"
	"github.com/odvcencio/tilewm/pkg/ui/input"
)

// Backend is the terminal abstraction layer.
// Implementations handle terminal I/O, input events, and presentation.
type Backend interface {
	// Init takes over the terminal.
	Init() error

	// Fini restores the terminal state.
	Fini()

	// Size returns the current terminal dimensions. It is queried once per
	// cycle.
	Size() (width, height int)

	// Profile reports the color support of the terminal.
	Profile() termenv.Profile

	// Present paints the renderer's current frame and ends its cycle.
	// When full is set every row is repainted.
	Present(r *compositor.Renderer, full bool) error

	// Run reads host input into p until ctx ends or the input closes.
	Run(ctx context.Context, p *input.Pipeline) error
}

// ProfileForColors maps a color count to the closest termenv profile.
func ProfileForColors(n int) termenv.Profile {
	switch {
	case n >= 1<<24:
		return termenv.TrueColor
	case n >= 256:
		return termenv.ANSI256
	case n >= 8:
		return termenv.ANSI
	}
	return termenv.Ascii
}
