package desktop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/tilewm/pkg/ui/input"
	"github.com/odvcencio/tilewm/pkg/ui/terminal"
)

func keyEvent(code terminal.Code, mods terminal.Modifiers) input.KeyEvent {
	return input.KeyEvent{Code: code, Mods: mods, State: input.StatePressed}
}

func TestDefaultBindings_Lookup(t *testing.T) {
	b := DefaultBindings()

	tests := []struct {
		name string
		mode Mode
		key  input.KeyEvent
		want Action
		ok   bool
	}{
		{"quit in apps", ModeApps, keyEvent(terminal.CodeQ, terminal.ModCtrl), ActionQuit, true},
		{"quit in choose", ModeChoose, keyEvent(terminal.CodeQ, terminal.ModCtrl), ActionQuit, true},
		{"toggle in layout", ModeLayout, keyEvent(terminal.CodeL, terminal.ModCtrl), ActionToggleLayout, true},
		{"split is layout only", ModeApps, keyEvent(terminal.CodeW, terminal.ModCtrl), "", false},
		{"split row", ModeLayout, keyEvent(terminal.CodeW, terminal.ModCtrl), ActionRowBefore, true},
		{"delete row", ModeLayout, keyEvent(terminal.CodeW, terminal.ModCtrl|terminal.ModAlt), ActionDeleteRowAbove, true},
		{"shrink height", ModeLayout, keyEvent(terminal.CodeW, terminal.ModAlt), ActionShrinkHeight, true},
		{"plain W unbound", ModeLayout, keyEvent(terminal.CodeW, 0), "", false},
		{"up in layout", ModeLayout, keyEvent(terminal.CodeUp, 0), ActionFocusUp, true},
		{"up in choose", ModeChoose, keyEvent(terminal.CodeUp, 0), ActionChooserUp, true},
		{"up in apps", ModeApps, keyEvent(terminal.CodeUp, 0), "", false},
		{"escape cancels", ModeChoose, keyEvent(terminal.CodeEsc, 0), ActionChooserCancel, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := b.Lookup(tt.mode, tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.Action)
		})
	}
}

func TestDefaultBindings_RepeatableResizes(t *testing.T) {
	b := DefaultBindings()
	for _, a := range []Action{ActionShrinkHeight, ActionGrowHeight, ActionShrinkWidth, ActionGrowWidth} {
		for _, bd := range b {
			if bd.Action == a {
				assert.True(t, bd.Repeat, a)
			}
		}
	}
	bd, ok := b.Lookup(ModeLayout, keyEvent(terminal.CodeS, terminal.ModCtrl))
	require.True(t, ok)
	assert.False(t, bd.Repeat)
}

func TestBindings_With(t *testing.T) {
	b, err := DefaultBindings().With(map[string]string{"quit": "ctrl+X", "Fullscreen": "alt+F"})
	require.NoError(t, err)

	_, ok := b.Lookup(ModeApps, keyEvent(terminal.CodeQ, terminal.ModCtrl))
	assert.False(t, ok)
	bd, ok := b.Lookup(ModeApps, keyEvent(terminal.CodeX, terminal.ModCtrl))
	require.True(t, ok)
	assert.Equal(t, ActionQuit, bd.Action)
	bd, ok = b.Lookup(ModeLayout, keyEvent(terminal.CodeF, terminal.ModAlt))
	require.True(t, ok)
	assert.Equal(t, ActionFullscreen, bd.Action)

	// The receiver is untouched.
	tok, ok := DefaultBindings().Token(ActionQuit)
	require.True(t, ok)
	assert.Equal(t, "ctrl+Q", tok.String())
}

func TestBindings_WithErrors(t *testing.T) {
	_, err := DefaultBindings().With(map[string]string{"teleport": "ctrl+T"})
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = DefaultBindings().With(map[string]string{"quit": "ctrl+NOPE"})
	assert.ErrorIs(t, err, input.ErrInvalidToken)
}

func TestBindings_Help(t *testing.T) {
	help := DefaultBindings().Help()
	assert.Contains(t, help, "ctrl+Q")
	assert.Contains(t, help, "toggle layout")
	assert.Contains(t, help, "layout:")
	assert.Contains(t, help, "chooser place")
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "apps", ModeApps.String())
	assert.Equal(t, "layout", ModeLayout.String())
	assert.Equal(t, "choose", ModeChoose.String())
	assert.Equal(t, "any", ModeAny.String())
}
