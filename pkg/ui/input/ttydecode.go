package input

import (
	"bytes"
	"strconv"
	"unicode/utf8"

	"github.com/odvcencio/tilewm/pkg/ui/terminal"
)

// Decoder turns bytes read from a terminal in raw mode into events.
//
// A terminal only reports keys as they are typed, so every key transition
// it produces is a press marked AutoRelease; holding a key shows up as the
// host terminal's own autorepeat. Each transition keeps the exact bytes it
// was decoded from in Raw.
type Decoder struct {
	pending []byte
}

// Decode consumes buf and returns the events it holds. An escape sequence
// cut off at the end of buf is kept until the next call, except for a lone
// ESC which is reported as the escape key.
func (d *Decoder) Decode(buf []byte) []terminal.Event {
	data := append(d.pending, buf...)
	d.pending = nil

	var events []terminal.Event
	for len(data) > 0 {
		ev, n := decodeOne(data)
		if n == 0 {
			d.pending = append([]byte(nil), data...)
			break
		}
		if ev != nil {
			events = append(events, ev)
		}
		data = data[n:]
	}
	return events
}

func key(code terminal.Code, r rune, mods terminal.Modifiers, raw []byte) terminal.KeyTransition {
	return terminal.KeyTransition{
		Code:        code,
		State:       terminal.KeyPressed,
		Rune:        r,
		Mods:        mods,
		Raw:         append([]byte(nil), raw...),
		AutoRelease: true,
	}
}

// decodeOne decodes the event at the start of data and reports how many
// bytes it used. It returns n == 0 when data holds an incomplete sequence.
func decodeOne(data []byte) (terminal.Event, int) {
	b := data[0]
	if b != 0x1b {
		return decodeByte(data)
	}
	if len(data) == 1 {
		return key(terminal.CodeEsc, 0, terminal.ModNone, data[:1]), 1
	}

	switch data[1] {
	case '[':
		return decodeCSI(data)
	case 'O':
		if len(data) < 3 {
			return nil, 0
		}
		code := ss3Keys[data[2]]
		if code == terminal.CodeNone {
			return nil, 3
		}
		return key(code, 0, terminal.ModNone, data[:3]), 3
	case 0x1b:
		return key(terminal.CodeEsc, 0, terminal.ModNone, data[:1]), 1
	}

	// ESC followed by a key is that key with alt.
	ev, n := decodeByte(data[1:])
	if n == 0 {
		return nil, 0
	}
	if kt, ok := ev.(terminal.KeyTransition); ok {
		kt.Mods |= terminal.ModAlt
		kt.Raw = append([]byte(nil), data[:n+1]...)
		return kt, n + 1
	}
	return ev, n + 1
}

func decodeByte(data []byte) (terminal.Event, int) {
	b := data[0]
	switch {
	case b == '\r' || b == '\n':
		return key(terminal.CodeEnter, 0, terminal.ModNone, data[:1]), 1
	case b == '\t':
		return key(terminal.CodeTab, 0, terminal.ModNone, data[:1]), 1
	case b == 0x7f || b == 0x08:
		return key(terminal.CodeBackspace, 0, terminal.ModNone, data[:1]), 1
	case b == 0x00:
		return key(terminal.CodeSpace, ' ', terminal.ModCtrl, data[:1]), 1
	case b >= 0x01 && b <= 0x1a:
		r := rune('a' + b - 1)
		code, _ := terminal.CodeFor(r)
		return key(code, r, terminal.ModCtrl, data[:1]), 1
	case b < 0x20:
		return key(terminal.CodeNone, 0, terminal.ModCtrl, data[:1]), 1
	case b < 0x80:
		r := rune(b)
		code, shift := terminal.CodeFor(r)
		mods := terminal.ModNone
		if shift {
			mods = terminal.ModShift
		}
		return key(code, r, mods, data[:1]), 1
	}

	if !utf8.FullRune(data) {
		return nil, 0
	}
	r, size := utf8.DecodeRune(data)
	return key(terminal.CodeNone, r, terminal.ModNone, data[:size]), size
}

var ss3Keys = map[byte]terminal.Code{
	'A': terminal.CodeUp, 'B': terminal.CodeDown, 'C': terminal.CodeRight, 'D': terminal.CodeLeft,
	'H': terminal.CodeHome, 'F': terminal.CodeEnd,
	'P': terminal.CodeF1, 'Q': terminal.CodeF2, 'R': terminal.CodeF3, 'S': terminal.CodeF4,
}

var tildeKeys = map[int]terminal.Code{
	1: terminal.CodeHome, 2: terminal.CodeInsert, 3: terminal.CodeDelete, 4: terminal.CodeEnd,
	5: terminal.CodePageUp, 6: terminal.CodePageDown, 7: terminal.CodeHome, 8: terminal.CodeEnd,
	15: terminal.CodeF5, 17: terminal.CodeF6, 18: terminal.CodeF7, 19: terminal.CodeF8,
	20: terminal.CodeF9, 21: terminal.CodeF10, 23: terminal.CodeF11, 24: terminal.CodeF12,
}

func decodeCSI(data []byte) (terminal.Event, int) {
	j := 2
	for j < len(data) && data[j] >= 0x20 && data[j] <= 0x3f {
		j++
	}
	if j >= len(data) {
		return nil, 0
	}
	// A control byte cuts the sequence short and is decoded on its own.
	if data[j] < 0x20 {
		return nil, j
	}
	final := data[j]
	n := j + 1
	raw := data[:n]
	params := data[2:j]

	if len(params) > 0 && params[0] == '<' {
		return decodeSGRMouse(params[1:], final), n
	}

	args := splitParams(params)
	mods := terminal.ModNone
	if len(args) >= 2 {
		mods = xtermModifiers(args[1])
	}

	switch final {
	case '~':
		if len(args) == 0 {
			return nil, n
		}
		code, ok := tildeKeys[args[0]]
		if !ok {
			return nil, n
		}
		return key(code, 0, mods, raw), n
	case 'Z':
		return key(terminal.CodeTab, 0, terminal.ModShift, raw), n
	}
	if code, ok := ss3Keys[final]; ok {
		return key(code, 0, mods, raw), n
	}
	return nil, n
}

func splitParams(p []byte) []int {
	if len(p) == 0 {
		return nil
	}
	fields := bytes.Split(p, []byte{';'})
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(string(f))
		if err != nil {
			v = 0
		}
		out = append(out, v)
	}
	return out
}

// xtermModifiers decodes the "1 + bitmask" modifier parameter.
func xtermModifiers(v int) terminal.Modifiers {
	if v <= 1 {
		return terminal.ModNone
	}
	bits := v - 1
	var mods terminal.Modifiers
	if bits&1 != 0 {
		mods |= terminal.ModShift
	}
	if bits&2 != 0 {
		mods |= terminal.ModAlt
	}
	if bits&4 != 0 {
		mods |= terminal.ModCtrl
	}
	if bits&8 != 0 {
		mods |= terminal.ModSuper
	}
	return mods
}

func decodeSGRMouse(params []byte, final byte) terminal.Event {
	args := splitParams(params)
	if len(args) != 3 || (final != 'M' && final != 'm') {
		return nil
	}
	b, x, y := args[0], args[1]-1, args[2]-1

	ev := terminal.MouseEvent{X: x, Y: y, Action: terminal.MousePress}
	if final == 'm' {
		ev.Action = terminal.MouseRelease
	}
	if b&32 != 0 {
		ev.Action = terminal.MouseMove
	}
	if b&4 != 0 {
		ev.Mods |= terminal.ModShift
	}
	if b&8 != 0 {
		ev.Mods |= terminal.ModAlt
	}
	if b&16 != 0 {
		ev.Mods |= terminal.ModCtrl
	}

	switch {
	case b&64 != 0 && b&1 == 0:
		ev.Button = terminal.MouseWheelUp
	case b&64 != 0:
		ev.Button = terminal.MouseWheelDown
	case b&3 == 0:
		ev.Button = terminal.MouseLeft
	case b&3 == 1:
		ev.Button = terminal.MouseMiddle
	case b&3 == 2:
		ev.Button = terminal.MouseRight
	}
	return ev
}
