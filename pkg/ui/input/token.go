package input

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/tilewm/pkg/ui/terminal"
)

// Token parse errors.
var (
	ErrEmptyToken   = errors.New("empty key token")
	ErrInvalidToken = errors.New("invalid key token")
)

var namedCodes = func() map[string]terminal.Code {
	m := make(map[string]terminal.Code)
	for c := terminal.Code(1); c < 256; c++ {
		if name := c.String(); name != "UNKNOWN" {
			m[name] = c
		}
	}
	return m
}()

// Token is a parsed key binding such as "ctrl+W".
type Token struct {
	Code terminal.Code
	Mods terminal.Modifiers
}

// ParseToken validates a binding token. Modifier names and the key name may
// appear in any order; exactly one key name is required.
func ParseToken(s string) (Token, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Token{}, ErrEmptyToken
	}

	var tok Token
	for _, part := range strings.Split(s, "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Token{}, fmt.Errorf("%w: %q", ErrInvalidToken, s)
		}
		if mod, ok := terminal.ModifierByName(part); ok {
			tok.Mods |= mod
			continue
		}
		code, ok := namedCodes[strings.ToUpper(part)]
		if !ok {
			return Token{}, fmt.Errorf("%w: unknown key %q", ErrInvalidToken, part)
		}
		if tok.Code != terminal.CodeNone {
			return Token{}, fmt.Errorf("%w: more than one key in %q", ErrInvalidToken, s)
		}
		tok.Code = code
	}
	if tok.Code == terminal.CodeNone {
		return Token{}, fmt.Errorf("%w: no key in %q", ErrInvalidToken, s)
	}
	return tok, nil
}

// Matches reports whether e is the key and modifier set of t.
func (t Token) Matches(e KeyEvent) bool {
	return e.Code == t.Code && e.Mods == t.Mods
}

func (t Token) String() string {
	return KeyEvent{Code: t.Code, Mods: t.Mods}.String()
}
