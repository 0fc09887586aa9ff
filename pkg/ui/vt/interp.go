package vt

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// maxPending bounds how many bytes of an unfinished sequence are kept
// between feeds. Anything longer is treated as garbage.
const maxPending = 4096

// Interpreter applies a VT100 subset to a Screen.
//
// Only sequences that move the cursor or clear cells change the model.
// SGR sequences are queued on the screen verbatim and attached to the next
// printed glyph. Every other sequence is consumed and dropped.
type Interpreter struct {
	screen  *Screen
	pending []byte
}

// NewInterpreter creates an interpreter driving s.
func NewInterpreter(s *Screen) *Interpreter {
	return &Interpreter{screen: s}
}

// Screen returns the screen the interpreter drives.
func (p *Interpreter) Screen() *Screen {
	return p.screen
}

// Feed interprets data. Sequences and UTF-8 characters split across calls
// are completed by the next call.
func (p *Interpreter) Feed(data []byte) {
	buf := data
	if len(p.pending) > 0 {
		buf = append(p.pending, data...)
		p.pending = nil
	}

	for i := 0; i < len(buf); {
		n := p.step(buf[i:])
		if n == 0 {
			rest := buf[i:]
			if len(rest) > maxPending {
				// Drop the introducer and resynchronize.
				i++
				continue
			}
			p.pending = append([]byte(nil), rest...)
			return
		}
		i += n
	}
}

// step consumes one unit from the start of b and returns its length, or 0
// when b ends inside the unit.
func (p *Interpreter) step(b []byte) int {
	s := p.screen
	c := b[0]
	switch {
	case c == 0x1b:
		return p.escape(b)
	case c == '\n', c == '\v', c == '\f':
		s.Newline()
		return 1
	case c == '\r':
		s.CarriageReturn()
		return 1
	case c == '\b':
		s.Backspace()
		return 1
	case c == '\t':
		s.Tab()
		return 1
	case c < 0x20 || c == 0x7f:
		return 1
	case c < 0x80:
		s.Put(string(c), 1)
		return 1
	}

	if !utf8.FullRune(b) {
		return 0
	}
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError {
		s.Put(string(utf8.RuneError), 1)
		return size
	}
	switch w := runewidth.RuneWidth(r); w {
	case 0:
		s.Combine(string(r))
	default:
		s.Put(string(r), w)
	}
	return size
}

func (p *Interpreter) escape(b []byte) int {
	if len(b) < 2 {
		return 0
	}
	switch b[1] {
	case '[':
		return p.csi(b)
	case ']', 'P', 'X', '^', '_':
		return stringEnd(b)
	case '(', ')', '*', '+', '-', '.', '/', '#', '%', ' ':
		if len(b) < 3 {
			return 0
		}
		return 3
	}
	return 2
}

// stringEnd finds the end of an OSC, DCS, SOS, PM or APC string, which is
// terminated by BEL or ST (ESC \).
func stringEnd(b []byte) int {
	for i := 2; i < len(b); i++ {
		switch b[i] {
		case 0x07:
			return i + 1
		case 0x1b:
			if i+1 >= len(b) {
				return 0
			}
			if b[i+1] == '\\' {
				return i + 2
			}
		}
	}
	return 0
}

func (p *Interpreter) csi(b []byte) int {
	i := 2
	for i < len(b) && b[i] >= 0x20 && b[i] <= 0x3f {
		i++
	}
	if i >= len(b) {
		return 0
	}
	final := b[i]
	if final < 0x40 || final > 0x7e {
		// A control byte inside the sequence aborts it.
		return i
	}
	p.dispatch(string(b[2:i]), final, string(b[:i+1]))
	return i + 1
}

func (p *Interpreter) dispatch(params string, final byte, seq string) {
	if params != "" && strings.IndexByte("<=>?", params[0]) >= 0 {
		// Private sequences (modes, queries, key modifiers) are not modeled.
		return
	}
	s := p.screen
	args := parseArgs(params)
	switch final {
	case 'm':
		s.AddStyle(seq)
	case 'H', 'f':
		s.SetCursor(arg(args, 1, 1)-1, arg(args, 0, 1)-1)
	case 'A':
		s.MoveCursor(0, -count(args))
	case 'B':
		s.MoveCursor(0, count(args))
	case 'C':
		s.MoveCursor(count(args), 0)
	case 'D':
		s.MoveCursor(-count(args), 0)
	case 'J':
		s.EraseDisplay(arg(args, 0, 0))
	case 'K':
		s.EraseLine(arg(args, 0, 0))
	}
}

func parseArgs(params string) []int {
	if params == "" {
		return nil
	}
	fields := strings.Split(params, ";")
	args := make([]int, len(fields))
	for i, f := range fields {
		if v, err := strconv.Atoi(f); err == nil {
			args[i] = v
		}
	}
	return args
}

// arg returns argument i, or def when it is missing or zero.
func arg(args []int, i, def int) int {
	if i >= len(args) || args[i] == 0 {
		return def
	}
	return args[i]
}

func count(args []int) int {
	return arg(args, 0, 1)
}
