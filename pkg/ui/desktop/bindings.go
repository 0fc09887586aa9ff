package desktop

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/odvcencio/tilewm/pkg/ui/input"
)

// ErrUnknownAction is returned for a key override naming no action.
var ErrUnknownAction = errors.New("unknown action")

// Mode selects what keys do.
type Mode uint8

const (
	// ModeAny marks bindings that apply in every mode.
	ModeAny Mode = iota
	// ModeApps sends keys to the focused occupant.
	ModeApps
	// ModeLayout edits the tiling.
	ModeLayout
	// ModeChoose picks an app for the focused tile.
	ModeChoose
)

func (m Mode) String() string {
	switch m {
	case ModeApps:
		return "apps"
	case ModeLayout:
		return "layout"
	case ModeChoose:
		return "choose"
	}
	return "any"
}

// Action names a desktop command. The names are the keys of the
// configuration's key overrides.
type Action string

const (
	ActionQuit         Action = "quit"
	ActionToggleLayout Action = "toggle_layout"

	ActionRowBefore         Action = "row_before"
	ActionRowAfter          Action = "row_after"
	ActionColumnBefore      Action = "column_before"
	ActionColumnAfter       Action = "column_after"
	ActionDeleteRowAbove    Action = "delete_row_above"
	ActionDeleteRowBelow    Action = "delete_row_below"
	ActionDeleteColumnLeft  Action = "delete_column_left"
	ActionDeleteColumnRight Action = "delete_column_right"

	ActionFocusUp    Action = "focus_up"
	ActionFocusDown  Action = "focus_down"
	ActionFocusLeft  Action = "focus_left"
	ActionFocusRight Action = "focus_right"

	ActionShrinkHeight Action = "shrink_height"
	ActionGrowHeight   Action = "grow_height"
	ActionShrinkWidth  Action = "shrink_width"
	ActionGrowWidth    Action = "grow_width"

	ActionPickUp     Action = "pick_up"
	ActionPutDown    Action = "put_down"
	ActionClose      Action = "close"
	ActionChoose     Action = "choose"
	ActionFullscreen Action = "fullscreen"

	ActionChooserUp     Action = "chooser_up"
	ActionChooserDown   Action = "chooser_down"
	ActionChooserPlace  Action = "chooser_place"
	ActionChooserCancel Action = "chooser_cancel"
)

// Binding ties a key token to an action in one mode.
type Binding struct {
	Action Action
	Token  input.Token
	Mode   Mode
	// Repeat makes a held key act again under the desktop's repeat policy.
	// Other bindings act on the press only.
	Repeat bool
}

// Bindings is a key table. Earlier entries win when two share a token.
type Bindings []Binding

var defaultBindings = []struct {
	action Action
	token  string
	mode   Mode
	repeat bool
}{
	{ActionQuit, "ctrl+Q", ModeAny, false},
	{ActionToggleLayout, "ctrl+L", ModeAny, false},

	{ActionRowBefore, "ctrl+W", ModeLayout, false},
	{ActionRowAfter, "ctrl+S", ModeLayout, false},
	{ActionColumnBefore, "ctrl+A", ModeLayout, false},
	{ActionColumnAfter, "ctrl+D", ModeLayout, false},
	{ActionDeleteRowAbove, "ctrl+alt+W", ModeLayout, false},
	{ActionDeleteRowBelow, "ctrl+alt+S", ModeLayout, false},
	{ActionDeleteColumnLeft, "ctrl+alt+A", ModeLayout, false},
	{ActionDeleteColumnRight, "ctrl+alt+D", ModeLayout, false},

	{ActionFocusUp, "UP", ModeLayout, false},
	{ActionFocusDown, "DOWN", ModeLayout, false},
	{ActionFocusLeft, "LEFT", ModeLayout, false},
	{ActionFocusRight, "RIGHT", ModeLayout, false},

	{ActionShrinkHeight, "alt+W", ModeLayout, true},
	{ActionGrowHeight, "alt+S", ModeLayout, true},
	{ActionShrinkWidth, "alt+A", ModeLayout, true},
	{ActionGrowWidth, "alt+D", ModeLayout, true},

	{ActionPickUp, "X", ModeLayout, false},
	{ActionPutDown, "V", ModeLayout, false},
	{ActionClose, "DELETE", ModeLayout, false},
	{ActionChoose, "ENTER", ModeLayout, false},
	{ActionFullscreen, "F", ModeLayout, false},

	{ActionChooserUp, "UP", ModeChoose, true},
	{ActionChooserDown, "DOWN", ModeChoose, true},
	{ActionChooserPlace, "ENTER", ModeChoose, false},
	{ActionChooserCancel, "ESC", ModeChoose, false},
}

// DefaultBindings returns the built-in key table.
func DefaultBindings() Bindings {
	b := make(Bindings, 0, len(defaultBindings))
	for _, d := range defaultBindings {
		tok, err := input.ParseToken(d.token)
		if err != nil {
			panic(fmt.Sprintf("default binding %s: %v", d.action, err))
		}
		b = append(b, Binding{Action: d.action, Token: tok, Mode: d.mode, Repeat: d.repeat})
	}
	return b
}

// With returns a copy of b with the tokens of the named actions replaced.
// Overrides are keyed by action name.
func (b Bindings) With(overrides map[string]string) (Bindings, error) {
	out := slices.Clone(b)
	// Sorted so the first reported error does not depend on map order.
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		action := Action(strings.ToLower(strings.TrimSpace(name)))
		i := slices.IndexFunc(out, func(bd Binding) bool { return bd.Action == action })
		if i < 0 {
			return nil, fmt.Errorf("key override %q: %w", name, ErrUnknownAction)
		}
		tok, err := input.ParseToken(overrides[name])
		if err != nil {
			return nil, fmt.Errorf("key override %q: %w", name, err)
		}
		out[i].Token = tok
	}
	return out, nil
}

// Lookup returns the binding e triggers in mode.
func (b Bindings) Lookup(mode Mode, e input.KeyEvent) (Binding, bool) {
	for _, bd := range b {
		if (bd.Mode == ModeAny || bd.Mode == mode) && bd.Token.Matches(e) {
			return bd, true
		}
	}
	return Binding{}, false
}

// Token returns the key bound to action.
func (b Bindings) Token(action Action) (input.Token, bool) {
	for _, bd := range b {
		if bd.Action == action {
			return bd.Token, true
		}
	}
	return input.Token{}, false
}

// Help renders the table as one "token  action" line per binding, grouped
// by mode.
func (b Bindings) Help() string {
	var sb strings.Builder
	for _, mode := range []Mode{ModeAny, ModeLayout, ModeChoose} {
		fmt.Fprintf(&sb, "%s:\n", mode)
		for _, bd := range b {
			if bd.Mode != mode {
				continue
			}
			fmt.Fprintf(&sb, "  %-12s %s\n", bd.Token, strings.ReplaceAll(string(bd.Action), "_", " "))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
