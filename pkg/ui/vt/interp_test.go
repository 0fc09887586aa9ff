package vt

import (
	"strings"
	"testing"
)

func feed(t *testing.T, w, h int, chunks ...string) *Interpreter {
	t.Helper()
	p := NewInterpreter(NewScreen(w, h))
	for _, c := range chunks {
		p.Feed([]byte(c))
	}
	return p
}

func text(s *Screen, y int) string {
	return strings.TrimRight(s.Text(y), " ")
}

func assertCursor(t *testing.T, s *Screen, x, y int) {
	t.Helper()
	if gx, gy := s.Cursor(); gx != x || gy != y {
		t.Fatalf("cursor = (%d,%d), want (%d,%d)", gx, gy, x, y)
	}
}

func TestClearThenPosition(t *testing.T) {
	s := feed(t, 80, 24, "A\x1b[2J\x1b[3;5HB").Screen()

	for y := range 24 {
		want := ""
		if y == 2 {
			want = "    B"
		}
		if got := text(s, y); got != want {
			t.Fatalf("line %d = %q, want %q", y, got, want)
		}
	}
	if got := s.Cell(4, 2).Glyph; got != "B" {
		t.Fatalf("cell (4,2) = %q", got)
	}
	assertCursor(t, s, 5, 2)
}

func TestControlCharacters(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		x    int
	}{
		{"carriage return", "abc\rX", "Xbc", 1},
		{"backspace", "ab\bX", "aX", 2},
		{"tab", "a\tb", "a       b", 9},
		{"bell ignored", "a\x07b", "ab", 2},
		{"erase to end", "hello\x1b[3D\x1b[K", "he", 2},
		{"erase to start", "hello\x1b[3D\x1b[1K", "   lo", 2},
		{"erase line", "hello\x1b[2K", "", 5},
		{"cursor forward", "a\x1b[3Cb", "a   b", 5},
		{"private mode ignored", "\x1b[?25lX\x1b[?1049h", "X", 1},
		{"charset ignored", "\x1b(BX", "X", 1},
		{"keypad mode ignored", "\x1b=X\x1b>", "X", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := feed(t, 20, 3, tt.in).Screen()
			if got := text(s, 0); got != tt.want {
				t.Fatalf("line = %q, want %q", got, tt.want)
			}
			assertCursor(t, s, tt.x, 0)
		})
	}
}

func TestNewlineAndScroll(t *testing.T) {
	s := feed(t, 10, 2, "a\nb\nc").Screen()
	if text(s, 0) != "b" || text(s, 1) != "c" {
		t.Fatalf("lines = %q %q", text(s, 0), text(s, 1))
	}
	assertCursor(t, s, 1, 1)
}

func TestDeferredWrap(t *testing.T) {
	s := feed(t, 5, 3, "abcde").Screen()
	assertCursor(t, s, 5, 0)

	p := NewInterpreter(s)
	p.Feed([]byte("f"))
	if text(s, 0) != "abcde" || text(s, 1) != "f" {
		t.Fatalf("lines = %q %q", text(s, 0), text(s, 1))
	}
	assertCursor(t, s, 1, 1)
}

func TestCursorClamped(t *testing.T) {
	s := feed(t, 80, 24, "\x1b[100;100H").Screen()
	assertCursor(t, s, 79, 23)

	NewInterpreter(s).Feed([]byte("\x1b[99A\x1b[99D"))
	assertCursor(t, s, 0, 0)

	NewInterpreter(s).Feed([]byte("\x1b[2B\x1b[H"))
	assertCursor(t, s, 0, 0)
}

func TestEraseDisplay(t *testing.T) {
	tests := []struct {
		mode  string
		lines [3]string
	}{
		{"0", [3]string{"abc", "d", ""}},
		{"1", [3]string{"", "  f", "ghi"}},
		{"2", [3]string{"", "", ""}},
		{"3", [3]string{"", "", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			s := feed(t, 5, 3, "abc\ndef\nghi", "\x1b[2;2H\x1b["+tt.mode+"J").Screen()
			for y, want := range tt.lines {
				if got := text(s, y); got != want {
					t.Fatalf("line %d = %q, want %q", y, got, want)
				}
			}
			assertCursor(t, s, 1, 1)
		})
	}
}

func TestStringSequencesSwallowed(t *testing.T) {
	for _, in := range []string{
		"\x1b]0;title\x07ok",
		"\x1b]2;title\x1b\\ok",
		"\x1bPq#0;2;0;0;0\x1b\\ok",
		"\x1b_app\x07ok",
	} {
		if got := text(feed(t, 10, 1, in).Screen(), 0); got != "ok" {
			t.Fatalf("%q: line = %q", in, got)
		}
	}
}

func TestSplitAcrossFeeds(t *testing.T) {
	p := feed(t, 10, 3, "\x1b", "[", "2;3", "HZ")
	if got := p.Screen().Cell(2, 1).Glyph; got != "Z" {
		t.Fatalf("cell = %q", got)
	}

	p = feed(t, 10, 3, "\xc3", "\xa9!")
	if got := text(p.Screen(), 0); got != "é!" {
		t.Fatalf("line = %q", got)
	}

	p = feed(t, 10, 3, "\x1b]0;ti", "tle\x07", "ok")
	if got := text(p.Screen(), 0); got != "ok" {
		t.Fatalf("line = %q", got)
	}
	if len(p.pending) != 0 {
		t.Fatalf("pending = %q", p.pending)
	}
}

func TestUnterminatedSequenceDropped(t *testing.T) {
	p := NewInterpreter(NewScreen(10, 3))
	p.Feed([]byte("\x1b]" + strings.Repeat("x", maxPending+10)))
	if len(p.pending) > maxPending {
		t.Fatalf("pending grew to %d", len(p.pending))
	}

	p.Feed([]byte("\x1b[2J\x1b[HQ"))
	if got := p.Screen().Cell(0, 0).Glyph; got != "Q" {
		t.Fatalf("cell = %q", got)
	}
}

func TestStylePrefix(t *testing.T) {
	s := feed(t, 10, 1, "\x1b[31mR\x1b[0mg\x1b[1m").Screen()

	if c := s.Cell(0, 0); c.Prefix != "\x1b[31m" || c.Glyph != "R" {
		t.Fatalf("cell 0 = %+v", c)
	}
	if c := s.Cell(1, 0); c.Prefix != "\x1b[0m" || c.Glyph != "g" {
		t.Fatalf("cell 1 = %+v", c)
	}
	if s.Pending() != "\x1b[1m" {
		t.Fatalf("pending = %q", s.Pending())
	}
	if got := s.Line(0); got != "\x1b[31mR\x1b[0mg" {
		t.Fatalf("line = %q", got)
	}
}

func TestWideAndCombining(t *testing.T) {
	s := feed(t, 10, 1, "世a").Screen()
	if s.Cell(0, 0).Glyph != "世" || !s.Cell(1, 0).Continuation() || s.Cell(2, 0).Glyph != "a" {
		t.Fatalf("cells = %+v %+v %+v", s.Cell(0, 0), s.Cell(1, 0), s.Cell(2, 0))
	}
	assertCursor(t, s, 3, 0)

	// Overwriting the second half blanks the first.
	NewInterpreter(s).Feed([]byte("\x1b[1;2HZ"))
	if got := text(s, 0); got != " Za" {
		t.Fatalf("line = %q", got)
	}

	s = feed(t, 10, 1, "e\u0301x").Screen()
	if got := s.Cell(0, 0).Glyph; got != "e\u0301" {
		t.Fatalf("cell = %q", got)
	}
	assertCursor(t, s, 2, 0)
}

func TestWideGlyphWrapsEarly(t *testing.T) {
	s := feed(t, 3, 2, "ab世").Screen()
	if text(s, 0) != "ab" || s.Cell(0, 1).Glyph != "世" {
		t.Fatalf("lines = %q %q", text(s, 0), s.Text(1))
	}
	assertCursor(t, s, 2, 1)
}

func TestScreenResize(t *testing.T) {
	s := feed(t, 80, 24, strings.Repeat("x", 70), "\x1b[1;61H").Screen()
	assertCursor(t, s, 60, 0)

	s.Resize(40, 24)
	if got := s.Text(0); got != strings.Repeat("x", 40) {
		t.Fatalf("line = %q", got)
	}
	assertCursor(t, s, 40, 0)

	s.Resize(80, 24)
	if got := text(s, 0); got != strings.Repeat("x", 40) {
		t.Fatalf("line after grow = %q", got)
	}

	s.Resize(80, 2)
	assertCursor(t, s, 40, 0)
	if w, h := s.Size(); w != 80 || h != 2 {
		t.Fatalf("size = %dx%d", w, h)
	}
}

func TestResizeSplitsWideGlyph(t *testing.T) {
	s := feed(t, 4, 1, "a世").Screen()
	s.Resize(2, 1)
	if got := s.Text(0); got != "a " {
		t.Fatalf("line = %q", got)
	}
}
