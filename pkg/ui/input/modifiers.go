package input

import (
	"github.com/odvcencio/tilewm/pkg/ui/terminal"
)

// ModifierTracker keeps modifier state for sources that report modifier
// keys as ordinary key transitions, such as evdev.
//
// Every transition is stamped with the modifier state as of that
// transition. A modifier key's own transition is stamped with its flag
// cleared, before the state flips, so that the press, repeats and release
// of one modifier all share an identity and chords see consistent flags.
type ModifierTracker struct {
	down map[terminal.Code]bool
}

// NewModifierTracker creates a tracker with no modifiers down.
func NewModifierTracker() *ModifierTracker {
	return &ModifierTracker{down: make(map[terminal.Code]bool)}
}

// Mods returns the modifiers currently down.
func (m *ModifierTracker) Mods() terminal.Modifiers {
	var mods terminal.Modifiers
	for code, down := range m.down {
		if !down {
			continue
		}
		if flag, ok := code.Modifier(); ok {
			mods |= flag
		}
	}
	return mods
}

// Annotate builds the transition for a raw key sample and updates state.
func (m *ModifierTracker) Annotate(code terminal.Code, state terminal.KeyState) terminal.KeyTransition {
	mods := m.Mods()
	t := terminal.KeyTransition{Code: code, State: state, Mods: mods}

	if flag, ok := code.Modifier(); ok {
		t.Mods &^= flag
		m.down[code] = state != terminal.KeyReleased
		return t
	}

	t.Rune = terminal.RuneFor(code, mods)
	return t
}
