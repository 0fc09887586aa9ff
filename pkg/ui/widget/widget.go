// Package widget defines the contracts between the compositor and the
// things it hosts in tiles, plus an explicit registry of app factories.
package widget

import (
	"github.com/odvcencio/tilewm/pkg/ui/compositor"
	"github.com/odvcencio/tilewm/pkg/ui/input"
)

// Input is what a widget sees of one compositor cycle.
type Input struct {
	// Focused is set when the widget's tile has focus.
	Focused bool
	// Keys holds the live keys, only when focused.
	Keys []input.KeyEvent
	// Raw holds the bytes to pass through to a terminal, only when focused.
	Raw []byte
}

// Widget is anything that can be updated and drawn once per cycle.
type Widget interface {
	// Update advances the widget by one cycle and reports whether it needs
	// to be redrawn. It must not block.
	Update(in Input) bool
	// Draw paints the widget. Writes outside the canvas are clipped.
	Draw(c compositor.Canvas, focused bool)
}

// Flags select when an occupant keeps updating.
type Flags uint8

const (
	// FlagBackground keeps the occupant updating while its tile is not
	// focused.
	FlagBackground Flags = 1 << iota
	// FlagRunWhileFull keeps the occupant updating while another occupant
	// is fullscreen.
	FlagRunWhileFull
)

// Has reports whether every flag in f2 is set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Hints describe how an occupant would like to be sized.
type Hints struct {
	MinWidth, MinHeight   int
	PrefWidth, PrefHeight int
	Flags                 Flags
}

// Fits reports whether a width x height interior satisfies the minimums.
func (h Hints) Fits(width, height int) bool {
	return width >= h.MinWidth && height >= h.MinHeight
}

// Occupant is a widget that lives in a tile.
//
// The owner calls Close exactly once, when the occupant is evicted or its
// tile is deleted. An occupant is owned by one tile, or by the held slot,
// at a time.
type Occupant interface {
	Widget
	// ID is unique per instance.
	ID() string
	// Name is the registry name the occupant was created from.
	Name() string
	Hints() Hints
	// Resize is called whenever the tile interior changes.
	Resize(width, height int)
	Close() error
}
