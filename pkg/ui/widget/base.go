package widget

import "github.com/google/uuid"

// Base provides common bookkeeping for occupants.
// Embed this in occupant structs to get default implementations.
type Base struct {
	id          string
	name        string
	width       int
	height      int
	needsRender bool
}

// NewBase creates a Base with a fresh instance ID.
func NewBase(name string) Base {
	return Base{id: uuid.NewString(), name: name, needsRender: true}
}

// ID returns the instance ID.
func (b *Base) ID() string {
	return b.id
}

// Name returns the registry name.
func (b *Base) Name() string {
	return b.name
}

// Resize stores the interior size.
func (b *Base) Resize(width, height int) {
	if b.width != width || b.height != height {
		b.width, b.height = width, height
		b.needsRender = true
	}
}

// Size returns the last interior size.
func (b *Base) Size() (int, int) {
	return b.width, b.height
}

// Invalidate marks the occupant as needing a redraw.
func (b *Base) Invalidate() {
	b.needsRender = true
}

// NeedsRender reports whether the occupant needs to be redrawn.
func (b *Base) NeedsRender() bool {
	return b.needsRender
}

// ClearInvalidation clears the redraw flag.
func (b *Base) ClearInvalidation() {
	b.needsRender = false
}

// Close does nothing by default.
func (b *Base) Close() error {
	return nil
}
