// Package input turns raw key transitions into per-frame key events with
// press, hold and release semantics.
//
// Sources (a TTY byte decoder, a Linux evdev reader, a tcell screen) run on
// their own goroutines and send terminal events into a Pipeline. The
// compositor polls the pipeline once per frame and gets a Snapshot of every
// live key.
package input

import (
	"strings"
	"time"

	"github.com/odvcencio/tilewm/pkg/ui/terminal"
)

// State is the logical state of a key within one frame.
type State uint8

const (
	StatePressed State = iota + 1
	StateHeld
	StateReleased
)

func (s State) String() string {
	switch s {
	case StatePressed:
		return "pressed"
	case StateHeld:
		return "held"
	case StateReleased:
		return "released"
	}
	return "unknown"
}

// KeyEvent is the per-frame view of one physical key.
type KeyEvent struct {
	Code  terminal.Code
	State State
	// Rune is the printable character the key produced, or 0.
	Rune rune
	Mods terminal.Modifiers
	// PressedAt is the wall-clock time of the press that started the hold.
	PressedAt time.Time
	// HoldFrames counts the polling cycles the key has been held down.
	HoldFrames int

	autoRelease    bool
	pendingRelease bool
	seq            uint64
}

// Name returns the key's logical name, e.g. "W" or "ENTER".
func (e KeyEvent) Name() string {
	return e.Code.String()
}

// Pressed reports whether the key went down this frame.
func (e KeyEvent) Pressed() bool {
	return e.State == StatePressed
}

// Released reports whether the key went up this frame.
func (e KeyEvent) Released() bool {
	return e.State == StateReleased
}

// Down reports whether the key is pressed or held.
func (e KeyEvent) Down() bool {
	return e.State == StatePressed || e.State == StateHeld
}

// HeldFor returns how long the key has been down as of now.
func (e KeyEvent) HeldFor(now time.Time) time.Duration {
	if e.PressedAt.IsZero() {
		return 0
	}
	return now.Sub(e.PressedAt)
}

// Is reports whether the event matches a shorthand token such as "ctrl+W".
// The token's "+"-separated parts are compared, ignoring order and case,
// with the set holding the key name plus every active modifier.
func (e KeyEvent) Is(token string) bool {
	parts := strings.Split(token, "+")
	want := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		want[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}

	have := make(map[string]struct{}, 5)
	have[strings.ToLower(e.Name())] = struct{}{}
	for _, m := range e.Mods.Names() {
		have[m] = struct{}{}
	}

	if len(want) != len(have) {
		return false
	}
	for k := range have {
		if _, ok := want[k]; !ok {
			return false
		}
	}
	return true
}

// String returns the event in token form, e.g. "ctrl+alt+W".
func (e KeyEvent) String() string {
	parts := append(e.Mods.Names(), e.Name())
	return strings.Join(parts, "+")
}
