// Package terminal provides the raw input events handed from device readers
// to the compositor. Readers run on their own goroutines; the events they
// produce are plain values, safe to send across channels.
package terminal

import "strings"

// Event represents a raw input event.
type Event interface {
	eventMarker()
}

// KeyState is the physical state reported for a key. The values match the
// Linux input subsystem.
type KeyState uint8

const (
	KeyReleased KeyState = 0
	KeyPressed  KeyState = 1
	KeyRepeated KeyState = 2
)

func (s KeyState) String() string {
	switch s {
	case KeyReleased:
		return "released"
	case KeyPressed:
		return "pressed"
	case KeyRepeated:
		return "repeated"
	}
	return "unknown"
}

// Modifiers is a set of modifier flags.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

// ModNone is the empty modifier set.
const ModNone Modifiers = 0

var modifierNames = []struct {
	mod  Modifiers
	name string
}{
	{ModShift, "shift"},
	{ModCtrl, "ctrl"},
	{ModAlt, "alt"},
	{ModSuper, "super"},
}

// Has reports whether every flag in m2 is set in m.
func (m Modifiers) Has(m2 Modifiers) bool {
	return m&m2 == m2
}

// Names returns the names of the set flags in a fixed order.
func (m Modifiers) Names() []string {
	var names []string
	for _, mn := range modifierNames {
		if m.Has(mn.mod) {
			names = append(names, mn.name)
		}
	}
	return names
}

func (m Modifiers) String() string {
	if m == ModNone {
		return "none"
	}
	return strings.Join(m.Names(), "+")
}

// ModifierByName returns the flag for a modifier name such as "ctrl".
func ModifierByName(name string) (Modifiers, bool) {
	name = strings.ToLower(name)
	for _, mn := range modifierNames {
		if mn.name == name {
			return mn.mod, true
		}
	}
	return ModNone, false
}

// KeyTransition is one sample from a key source.
type KeyTransition struct {
	Code  Code
	State KeyState
	Rune  rune
	Mods  Modifiers
	// Raw holds the bytes the source decoded this sample from, if any.
	// A transition with Code 0 carries only raw bytes.
	Raw []byte
	// AutoRelease is set by sources that cannot observe key releases. The
	// key is treated as released on the first cycle without a new sample.
	AutoRelease bool
}

func (KeyTransition) eventMarker() {}

// ResizeEvent indicates terminal size changed.
type ResizeEvent struct {
	Width  int
	Height int
}

func (ResizeEvent) eventMarker() {}

// MouseEvent represents a mouse input event in screen cells.
type MouseEvent struct {
	X, Y   int
	Button MouseButton
	Action MouseAction
	Mods   Modifiers
}

func (MouseEvent) eventMarker() {}

// MouseButton identifies which mouse button was involved.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
)

// MouseAction identifies what happened with the mouse.
type MouseAction int

const (
	MousePress MouseAction = iota
	MouseRelease
	MouseMove
)
