package input

import (
	"unicode/utf8"

	"github.com/odvcencio/tilewm/pkg/ui/terminal"
)

var specialKeys = map[terminal.Code]string{
	terminal.CodeEnter:     "\r",
	terminal.CodeTab:       "\t",
	terminal.CodeBackspace: "\x7f",
	terminal.CodeEsc:       "\x1b",
	terminal.CodeUp:        "\x1b[A",
	terminal.CodeDown:      "\x1b[B",
	terminal.CodeRight:     "\x1b[C",
	terminal.CodeLeft:      "\x1b[D",
	terminal.CodeHome:      "\x1b[H",
	terminal.CodeEnd:       "\x1b[F",
	terminal.CodeInsert:    "\x1b[2~",
	terminal.CodeDelete:    "\x1b[3~",
	terminal.CodePageUp:    "\x1b[5~",
	terminal.CodePageDown:  "\x1b[6~",
	terminal.CodeF1:        "\x1bOP",
	terminal.CodeF2:        "\x1bOQ",
	terminal.CodeF3:        "\x1bOR",
	terminal.CodeF4:        "\x1bOS",
	terminal.CodeF5:        "\x1b[15~",
	terminal.CodeF6:        "\x1b[17~",
	terminal.CodeF7:        "\x1b[18~",
	terminal.CodeF8:        "\x1b[19~",
	terminal.CodeF9:        "\x1b[20~",
	terminal.CodeF10:       "\x1b[21~",
	terminal.CodeF11:       "\x1b[23~",
	terminal.CodeF12:       "\x1b[24~",
}

// Encode returns the bytes a VT100-style terminal sends for e, or nil when
// the key has no byte form (modifier keys, releases).
func Encode(e KeyEvent) []byte {
	if !e.Down() {
		return nil
	}
	if _, ok := e.Code.Modifier(); ok {
		return nil
	}

	var out []byte
	if e.Mods.Has(terminal.ModAlt) {
		out = append(out, 0x1b)
	}

	if seq, ok := specialKeys[e.Code]; ok {
		if e.Code == terminal.CodeTab && e.Mods.Has(terminal.ModShift) {
			return append(out, "\x1b[Z"...)
		}
		return append(out, seq...)
	}

	r := e.Rune
	if r == 0 {
		r = terminal.RuneFor(e.Code, e.Mods)
	}
	if r == 0 {
		return nil
	}

	if e.Mods.Has(terminal.ModCtrl) {
		if c, ok := controlByte(r); ok {
			return append(out, c)
		}
	}
	return utf8.AppendRune(out, r)
}

// controlByte maps a character to its C0 control code under ctrl.
func controlByte(r rune) (byte, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return byte(r-'a') + 1, true
	case r >= '@' && r <= '_':
		return byte(r - '@'), true
	case r == ' ':
		return 0, true
	case r == '?':
		return 0x7f, true
	}
	return 0, false
}
