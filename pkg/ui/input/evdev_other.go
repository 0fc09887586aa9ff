//go:build !linux

package input

import (
	"context"
	"errors"
)

// ErrNoKeyboard is returned when no keyboard device can be found.
var ErrNoKeyboard = errors.New("no keyboard device found")

// FindKeyboard always fails outside Linux.
func FindKeyboard() (string, error) {
	return "", ErrNoKeyboard
}

// Evdev is only available on Linux.
type Evdev struct{}

// OpenEvdev always fails outside Linux.
func OpenEvdev(string) (*Evdev, error) {
	return nil, ErrNoKeyboard
}

// Path returns an empty string.
func (e *Evdev) Path() string { return "" }

// Run returns ErrNoKeyboard.
func (e *Evdev) Run(context.Context, *Pipeline) error { return ErrNoKeyboard }

// Close does nothing.
func (e *Evdev) Close() error { return nil }
