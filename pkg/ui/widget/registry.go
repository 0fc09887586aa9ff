package widget

import (
	"errors"
	"fmt"
	"slices"
)

// Registry errors.
var (
	ErrUnknownApp   = errors.New("unknown app")
	ErrDuplicateApp = errors.New("app already registered")
)

// Factory creates an occupant for a tile interior of the given size.
type Factory func(width, height int) (Occupant, error)

// Registry is the table of apps the user can place into tiles. It is
// filled explicitly by the entry point.
type Registry struct {
	names     []string
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return fmt.Errorf("register %q: %w", name, ErrUnknownApp)
	}
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateApp)
	}
	r.names = append(r.names, name)
	r.factories[name] = f
	return nil
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// New creates an occupant from the factory registered under name.
func (r *Registry) New(name string, width, height int) (Occupant, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownApp, name)
	}
	occ, err := f(width, height)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return occ, nil
}
