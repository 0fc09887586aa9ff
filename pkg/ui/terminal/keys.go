package terminal

// Code is a scan code. Values follow the Linux input event codes so that
// every source reports the same code for the same physical key.
type Code uint16

const (
	CodeNone       Code = 0
	CodeEsc        Code = 1
	Code1          Code = 2
	Code2          Code = 3
	Code3          Code = 4
	Code4          Code = 5
	Code5          Code = 6
	Code6          Code = 7
	Code7          Code = 8
	Code8          Code = 9
	Code9          Code = 10
	Code0          Code = 11
	CodeMinus      Code = 12
	CodeEqual      Code = 13
	CodeBackspace  Code = 14
	CodeTab        Code = 15
	CodeQ          Code = 16
	CodeW          Code = 17
	CodeE          Code = 18
	CodeR          Code = 19
	CodeT          Code = 20
	CodeY          Code = 21
	CodeU          Code = 22
	CodeI          Code = 23
	CodeO          Code = 24
	CodeP          Code = 25
	CodeLeftBrace  Code = 26
	CodeRightBrace Code = 27
	CodeEnter      Code = 28
	CodeLeftCtrl   Code = 29
	CodeA          Code = 30
	CodeS          Code = 31
	CodeD          Code = 32
	CodeF          Code = 33
	CodeG          Code = 34
	CodeH          Code = 35
	CodeJ          Code = 36
	CodeK          Code = 37
	CodeL          Code = 38
	CodeSemicolon  Code = 39
	CodeApostrophe Code = 40
	CodeGrave      Code = 41
	CodeLeftShift  Code = 42
	CodeBackslash  Code = 43
	CodeZ          Code = 44
	CodeX          Code = 45
	CodeC          Code = 46
	CodeV          Code = 47
	CodeB          Code = 48
	CodeN          Code = 49
	CodeM          Code = 50
	CodeComma      Code = 51
	CodeDot        Code = 52
	CodeSlash      Code = 53
	CodeRightShift Code = 54
	CodeLeftAlt    Code = 56
	CodeSpace      Code = 57
	CodeCapsLock   Code = 58
	CodeF1         Code = 59
	CodeF2         Code = 60
	CodeF3         Code = 61
	CodeF4         Code = 62
	CodeF5         Code = 63
	CodeF6         Code = 64
	CodeF7         Code = 65
	CodeF8         Code = 66
	CodeF9         Code = 67
	CodeF10        Code = 68
	CodeF11        Code = 87
	CodeF12        Code = 88
	CodeRightCtrl  Code = 97
	CodeRightAlt   Code = 100
	CodeHome       Code = 102
	CodeUp         Code = 103
	CodePageUp     Code = 104
	CodeLeft       Code = 105
	CodeRight      Code = 106
	CodeEnd        Code = 107
	CodeDown       Code = 108
	CodePageDown   Code = 109
	CodeInsert     Code = 110
	CodeDelete     Code = 111
	CodeLeftMeta   Code = 125
	CodeRightMeta  Code = 126
)

var codeNames = map[Code]string{
	CodeEsc: "ESC", Code1: "1", Code2: "2", Code3: "3", Code4: "4", Code5: "5",
	Code6: "6", Code7: "7", Code8: "8", Code9: "9", Code0: "0",
	CodeMinus: "MINUS", CodeEqual: "EQUAL", CodeBackspace: "BACKSPACE", CodeTab: "TAB",
	CodeQ: "Q", CodeW: "W", CodeE: "E", CodeR: "R", CodeT: "T", CodeY: "Y", CodeU: "U",
	CodeI: "I", CodeO: "O", CodeP: "P", CodeLeftBrace: "LEFTBRACE", CodeRightBrace: "RIGHTBRACE",
	CodeEnter: "ENTER", CodeLeftCtrl: "LEFTCTRL",
	CodeA: "A", CodeS: "S", CodeD: "D", CodeF: "F", CodeG: "G", CodeH: "H", CodeJ: "J",
	CodeK: "K", CodeL: "L", CodeSemicolon: "SEMICOLON", CodeApostrophe: "APOSTROPHE",
	CodeGrave: "GRAVE", CodeLeftShift: "LEFTSHIFT", CodeBackslash: "BACKSLASH",
	CodeZ: "Z", CodeX: "X", CodeC: "C", CodeV: "V", CodeB: "B", CodeN: "N", CodeM: "M",
	CodeComma: "COMMA", CodeDot: "DOT", CodeSlash: "SLASH", CodeRightShift: "RIGHTSHIFT",
	CodeLeftAlt: "LEFTALT", CodeSpace: "SPACE", CodeCapsLock: "CAPSLOCK",
	CodeF1: "F1", CodeF2: "F2", CodeF3: "F3", CodeF4: "F4", CodeF5: "F5", CodeF6: "F6",
	CodeF7: "F7", CodeF8: "F8", CodeF9: "F9", CodeF10: "F10", CodeF11: "F11", CodeF12: "F12",
	CodeRightCtrl: "RIGHTCTRL", CodeRightAlt: "RIGHTALT",
	CodeHome: "HOME", CodeUp: "UP", CodePageUp: "PAGEUP", CodeLeft: "LEFT", CodeRight: "RIGHT",
	CodeEnd: "END", CodeDown: "DOWN", CodePageDown: "PAGEDOWN", CodeInsert: "INSERT",
	CodeDelete: "DELETE", CodeLeftMeta: "LEFTMETA", CodeRightMeta: "RIGHTMETA",
}

// String returns the key's logical name, e.g. "W" or "ENTER".
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// Modifier returns the flag a modifier key controls.
func (c Code) Modifier() (Modifiers, bool) {
	switch c {
	case CodeLeftShift, CodeRightShift:
		return ModShift, true
	case CodeLeftCtrl, CodeRightCtrl:
		return ModCtrl, true
	case CodeLeftAlt, CodeRightAlt:
		return ModAlt, true
	case CodeLeftMeta, CodeRightMeta:
		return ModSuper, true
	}
	return ModNone, false
}

// keymap is a US layout: code to unshifted and shifted characters.
var keymap = map[Code][2]rune{
	Code1: {'1', '!'}, Code2: {'2', '@'}, Code3: {'3', '#'}, Code4: {'4', '$'},
	Code5: {'5', '%'}, Code6: {'6', '^'}, Code7: {'7', '&'}, Code8: {'8', '*'},
	Code9: {'9', '('}, Code0: {'0', ')'}, CodeMinus: {'-', '_'}, CodeEqual: {'=', '+'},
	CodeQ: {'q', 'Q'}, CodeW: {'w', 'W'}, CodeE: {'e', 'E'}, CodeR: {'r', 'R'},
	CodeT: {'t', 'T'}, CodeY: {'y', 'Y'}, CodeU: {'u', 'U'}, CodeI: {'i', 'I'},
	CodeO: {'o', 'O'}, CodeP: {'p', 'P'}, CodeLeftBrace: {'[', '{'}, CodeRightBrace: {']', '}'},
	CodeA: {'a', 'A'}, CodeS: {'s', 'S'}, CodeD: {'d', 'D'}, CodeF: {'f', 'F'},
	CodeG: {'g', 'G'}, CodeH: {'h', 'H'}, CodeJ: {'j', 'J'}, CodeK: {'k', 'K'},
	CodeL: {'l', 'L'}, CodeSemicolon: {';', ':'}, CodeApostrophe: {'\'', '"'},
	CodeGrave: {'`', '~'}, CodeBackslash: {'\\', '|'},
	CodeZ: {'z', 'Z'}, CodeX: {'x', 'X'}, CodeC: {'c', 'C'}, CodeV: {'v', 'V'},
	CodeB: {'b', 'B'}, CodeN: {'n', 'N'}, CodeM: {'m', 'M'},
	CodeComma: {',', '<'}, CodeDot: {'.', '>'}, CodeSlash: {'/', '?'},
	CodeSpace: {' ', ' '},
}

type keyRune struct {
	code  Code
	shift bool
}

var runeCodes = func() map[rune]keyRune {
	m := make(map[rune]keyRune, len(keymap)*2)
	for code, pair := range keymap {
		m[pair[0]] = keyRune{code: code}
		if pair[1] != pair[0] {
			m[pair[1]] = keyRune{code: code, shift: true}
		}
	}
	return m
}()

// RuneFor returns the printable character a key produces, or 0.
func RuneFor(c Code, mods Modifiers) rune {
	pair, ok := keymap[c]
	if !ok {
		return 0
	}
	if mods.Has(ModShift) {
		return pair[1]
	}
	return pair[0]
}

// CodeFor returns the key that produces r and whether shift is needed.
func CodeFor(r rune) (Code, bool) {
	rc, ok := runeCodes[r]
	if !ok {
		return CodeNone, false
	}
	return rc.code, rc.shift
}
